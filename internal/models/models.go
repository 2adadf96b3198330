package models

import "time"

// SessionStatus is a point-in-time view of the booth's session
type SessionStatus struct {
	ID          string      `json:"id,omitempty"`
	State       string      `json:"state"`
	Countdown   int         `json:"countdown,omitempty"`
	PhotosTaken int         `json:"photos_taken"`
	MaxPhotos   int         `json:"max_photos"`
	Filter      string      `json:"filter"`
	CanStart    bool        `json:"can_start"`
	Flashes     int         `json:"flashes"`
	Photos      []PhotoItem `json:"photos"`
	DateLabel   string      `json:"date_label,omitempty"`
	Error       string      `json:"error,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
}

// PhotoItem represents one captured still
type PhotoItem struct {
	Index       int       `json:"index"`
	ImageURL    string    `json:"image_url"`
	Filter      string    `json:"filter"`
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
	TakenAt     time.Time `json:"taken_at"`
}
