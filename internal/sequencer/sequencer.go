package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/clock"
)

// Defaults for a booth run
const (
	DefaultPhotoCount    = 4
	DefaultCountdownFrom = 3
	DefaultTick          = 1000 * time.Millisecond
	DefaultPhotoDelay    = 1500 * time.Millisecond
)

var (
	ErrCaptureFailed   = errors.New("capture failed")
	ErrInvalidSettings = errors.New("invalid sequencer settings")
)

// Phase is the named state of a run
type Phase string

const (
	Idle      Phase = "idle"
	Counting  Phase = "counting"
	Capturing Phase = "capturing"
	Finished  Phase = "finished"
	Failed    Phase = "failed"
)

// State is one step of the run. Countdown is only set while Counting;
// Photo is the zero-based index of the photo being counted down or captured.
type State struct {
	Phase     Phase
	Countdown int
	Photo     int
}

func (s State) String() string {
	if s.Phase == Counting {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Countdown)
	}
	return string(s.Phase)
}

// Settings controls the shape of a run
type Settings struct {
	PhotoCount    int
	CountdownFrom int
	Tick          time.Duration
	PhotoDelay    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		PhotoCount:    DefaultPhotoCount,
		CountdownFrom: DefaultCountdownFrom,
		Tick:          DefaultTick,
		PhotoDelay:    DefaultPhotoDelay,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.PhotoCount < 1:
		return fmt.Errorf("%w: photo count must be at least 1", ErrInvalidSettings)
	case s.CountdownFrom < 0:
		return fmt.Errorf("%w: countdown must not be negative", ErrInvalidSettings)
	case s.Tick < 0 || s.PhotoDelay < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidSettings)
	}
	return nil
}

// Observer is told about every transition. Calls happen on the goroutine
// running the sequence and never overlap.
type Observer interface {
	StateChanged(State)
	// Flash is the capture feedback cue for the photo at index
	Flash(index int)
}

// CaptureFunc takes and stores the photo at index
type CaptureFunc func(ctx context.Context, index int) error

// Sequencer drives Idle → Counting(n..1) → Capturing → … → Finished
type Sequencer struct {
	settings Settings
	clock    clock.Clock
	observer Observer
}

func New(settings Settings, c clock.Clock, observer Observer) *Sequencer {
	if c == nil {
		c = clock.Real{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Sequencer{settings: settings, clock: c, observer: observer}
}

// Run takes PhotoCount photos. It returns once the run is Finished or
// Failed; a failed capture or a cancelled context ends the run in Failed.
func (s *Sequencer) Run(ctx context.Context, capture CaptureFunc) error {
	if err := s.settings.Validate(); err != nil {
		return err
	}

	for i := 0; i < s.settings.PhotoCount; i++ {
		for n := s.settings.CountdownFrom; n > 0; n-- {
			s.observer.StateChanged(State{Phase: Counting, Countdown: n, Photo: i})
			if err := s.clock.Sleep(ctx, s.settings.Tick); err != nil {
				return s.fail(i, err)
			}
		}

		s.observer.StateChanged(State{Phase: Capturing, Photo: i})
		if err := capture(ctx, i); err != nil {
			return s.fail(i, fmt.Errorf("%w: photo %d: %w", ErrCaptureFailed, i+1, err))
		}
		s.observer.Flash(i)
		slog.Debug("Photo captured", "photo", i+1, "of", s.settings.PhotoCount)

		if i+1 < s.settings.PhotoCount {
			if err := s.clock.Sleep(ctx, s.settings.PhotoDelay); err != nil {
				return s.fail(i+1, err)
			}
		}
	}

	s.observer.StateChanged(State{Phase: Finished, Photo: s.settings.PhotoCount})
	return nil
}

func (s *Sequencer) fail(photo int, err error) error {
	slog.Warn("Photo sequence failed", "photo", photo+1, "err", err)
	s.observer.StateChanged(State{Phase: Failed, Photo: photo})
	return err
}

type nopObserver struct{}

func (nopObserver) StateChanged(State) {}
func (nopObserver) Flash(int)          {}
