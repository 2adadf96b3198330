package testsupport

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
)

var ErrSourceFailed = errors.New("test source failed")

// Source hands out solid frames whose red channel is the frame number.
// FailAfter > 0 makes every frame past that count fail.
type Source struct {
	Width     int
	Height    int
	FailAfter int

	mu     sync.Mutex
	served int
	closed bool
}

func NewSource(w, h int) *Source {
	return &Source{Width: w, Height: h}
}

func (s *Source) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("test source closed")
	}
	if s.FailAfter > 0 && s.served >= s.FailAfter {
		return nil, ErrSourceFailed
	}
	s.served++
	return SolidImage(s.Width, s.Height, color.RGBA{R: uint8(s.served), G: 40, B: 80, A: 255}), nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Served reports how many frames were handed out
func (s *Source) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

// SolidImage returns a w×h image filled with c
func SolidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
