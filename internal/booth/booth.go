package booth

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/photobooth/internal/capture"
	"github.com/lehigh-university-libraries/photobooth/internal/clock"
	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/lehigh-university-libraries/photobooth/internal/models"
	"github.com/lehigh-university-libraries/photobooth/internal/sequencer"
	"github.com/lehigh-university-libraries/photobooth/internal/sink"
	"github.com/lehigh-university-libraries/photobooth/internal/source"
	"github.com/lehigh-university-libraries/photobooth/internal/strip"
)

var (
	ErrSessionInProgress = errors.New("a session is already in progress")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrNotStarted        = errors.New("no session has been started")
)

// Options configures a Booth. Zero values fall back to defaults.
type Options struct {
	Settings   sequencer.Settings
	Filter     filter.Filter
	DateLayout string
	Clock      clock.Clock
	// Observer additionally receives every sequencer event, after the booth
	// has recorded it
	Observer sequencer.Observer
}

// Session is one booth run. Photos only ever grow during a run and
// len(Photos) == PhotosTaken whenever the booth lock is released.
type Session struct {
	ID          string
	StartedAt   time.Time
	PhotosTaken int
	Photos      []*capture.Still
	DateLabel   string
}

// Booth owns the live source, the selected filter and the current session
type Booth struct {
	source     source.Source
	sourceErr  error
	settings   sequencer.Settings
	dateLayout string
	clock      clock.Clock
	observer   sequencer.Observer

	mu      sync.RWMutex
	filter  filter.Filter
	session Session
	state   sequencer.State
	flashes int
	running bool
	lastErr error
	done    chan struct{}
}

// New creates a booth around src. A nil src, or a non-nil sourceErr, leaves
// the booth with capture disabled.
func New(src source.Source, sourceErr error, opts Options) *Booth {
	if opts.Settings == (sequencer.Settings{}) {
		opts.Settings = sequencer.DefaultSettings()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Filter == "" {
		opts.Filter = filter.None
	}
	if src == nil && sourceErr == nil {
		sourceErr = errors.New("no source configured")
	}
	if sourceErr != nil {
		src = nil
		if !errors.Is(sourceErr, source.ErrSourceUnavailable) {
			sourceErr = fmt.Errorf("%w: %w", source.ErrSourceUnavailable, sourceErr)
		}
	}

	return &Booth{
		source:     src,
		sourceErr:  sourceErr,
		settings:   opts.Settings,
		dateLayout: opts.DateLayout,
		clock:      opts.Clock,
		observer:   opts.Observer,
		filter:     opts.Filter,
		state:      sequencer.State{Phase: sequencer.Idle},
	}
}

// SourceError reports why capture is disabled, or nil when it is not
func (b *Booth) SourceError() error {
	return b.sourceErr
}

func (b *Booth) Settings() sequencer.Settings {
	return b.settings
}

func (b *Booth) SetFilter(f filter.Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
	slog.Info("Filter selected", "filter", f)
}

func (b *Booth) Filter() filter.Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Start resets the session and runs the countdown-capture sequence in the
// background. ctx bounds the whole run, not just this call.
func (b *Booth) Start(ctx context.Context) error {
	if b.source == nil {
		return b.sourceErr
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrSessionInProgress
	}
	b.session = Session{
		ID:        uuid.NewString(),
		StartedAt: b.clock.Now(),
	}
	b.state = sequencer.State{Phase: sequencer.Idle}
	b.flashes = 0
	b.lastErr = nil
	b.running = true
	done := make(chan struct{})
	b.done = done
	sessionID := b.session.ID
	b.mu.Unlock()

	slog.Info("Session started", "session_id", sessionID, "photos", b.settings.PhotoCount)

	seq := sequencer.New(b.settings, b.clock, &observer{b: b})
	go func() {
		defer close(done)
		err := seq.Run(ctx, b.captureStill)

		b.mu.Lock()
		b.running = false
		b.lastErr = err
		taken := b.session.PhotosTaken
		b.mu.Unlock()

		if err != nil {
			slog.Error("Session failed", "session_id", sessionID, "photos_taken", taken, "err", err)
			return
		}
		slog.Info("Session finished", "session_id", sessionID, "photos_taken", taken)
	}()
	return nil
}

// Wait blocks until the current run ends and returns its error
func (b *Booth) Wait(ctx context.Context) error {
	b.mu.RLock()
	done := b.done
	b.mu.RUnlock()
	if done == nil {
		return ErrNotStarted
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// Run starts a session and waits for it to end
func (b *Booth) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}
	return b.Wait(ctx)
}

// Reset discards the session and makes the booth ready for a new one
func (b *Booth) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return ErrSessionInProgress
	}
	b.session = Session{}
	b.state = sequencer.State{Phase: sequencer.Idle}
	b.flashes = 0
	b.lastErr = nil
	slog.Info("Session reset")
	return nil
}

func (b *Booth) captureStill(ctx context.Context, index int) error {
	frame, err := b.source.Frame(ctx)
	if err != nil {
		return fmt.Errorf("failed to read live frame: %w", err)
	}

	f := b.Filter()
	still, err := capture.Take(frame, f, b.clock.Now())
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.session.Photos = append(b.session.Photos, still)
	b.session.PhotosTaken++
	return nil
}

// Session returns a snapshot of the current session
func (b *Booth) Session() Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.session
	s.Photos = append([]*capture.Still(nil), b.session.Photos...)
	return s
}

func (b *Booth) Status() models.SessionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status := models.SessionStatus{
		ID:          b.session.ID,
		State:       string(b.state.Phase),
		PhotosTaken: b.session.PhotosTaken,
		MaxPhotos:   b.settings.PhotoCount,
		Filter:      b.filter.String(),
		CanStart:    b.source != nil && !b.running,
		Flashes:     b.flashes,
		Photos:      make([]models.PhotoItem, 0, len(b.session.Photos)),
		DateLabel:   b.session.DateLabel,
	}
	if b.state.Phase == sequencer.Counting {
		status.Countdown = b.state.Countdown
	}
	if !b.session.StartedAt.IsZero() {
		started := b.session.StartedAt
		status.StartedAt = &started
	}
	switch {
	case b.lastErr != nil:
		status.Error = b.lastErr.Error()
	case b.source == nil:
		status.Error = b.sourceErr.Error()
	}

	for i, still := range b.session.Photos {
		status.Photos = append(status.Photos, models.PhotoItem{
			Index:       i,
			ImageURL:    fmt.Sprintf("/api/session/photos/%d", i),
			Filter:      still.Filter().String(),
			ImageWidth:  still.Width(),
			ImageHeight: still.Height(),
			TakenAt:     still.TakenAt(),
		})
	}
	return status
}

// Photo returns the still at index
func (b *Booth) Photo(index int) (*capture.Still, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.session.Photos) {
		return nil, fmt.Errorf("%w: %d", ErrPhotoNotFound, index)
	}
	return b.session.Photos[index], nil
}

// Preview captures the live frame with the current filter without storing it
func (b *Booth) Preview(ctx context.Context) (*capture.Still, error) {
	if b.source == nil {
		return nil, b.sourceErr
	}
	frame, err := b.source.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read live frame: %w", err)
	}
	return capture.Take(frame, b.Filter(), b.clock.Now())
}

// Strip composites the finished session into one image
func (b *Booth) Strip() (*image.RGBA, error) {
	b.mu.RLock()
	if b.running {
		b.mu.RUnlock()
		return nil, ErrSessionInProgress
	}
	photos := append([]*capture.Still(nil), b.session.Photos...)
	label := b.session.DateLabel
	b.mu.RUnlock()

	images := make([]image.Image, len(photos))
	for i, still := range photos {
		images[i] = still.Image()
	}
	return strip.Compose(images, b.settings.PhotoCount, label)
}

// Download renders the strip and hands it to dst as photo-strip.png
func (b *Booth) Download(ctx context.Context, dst sink.Sink) (string, error) {
	canvas, err := b.Strip()
	if err != nil {
		return "", err
	}
	data, err := strip.Encode(canvas)
	if err != nil {
		return "", err
	}

	location, err := dst.Save(ctx, strip.Filename, data)
	if err != nil {
		return "", fmt.Errorf("failed to save strip: %w", err)
	}

	if ms, ok := dst.(sink.ManifestSaver); ok {
		if err := ms.SaveManifest(ctx, location, b.manifest(canvas.Bounds())); err != nil {
			slog.Warn("Failed to save strip manifest", "location", location, "err", err)
		}
	}
	return location, nil
}

// SavePhotos hands every still to dst as photo-N.png
func (b *Booth) SavePhotos(ctx context.Context, dst sink.Sink) ([]string, error) {
	session := b.Session()
	locations := make([]string, 0, len(session.Photos))
	for i, still := range session.Photos {
		location, err := dst.Save(ctx, fmt.Sprintf("photo-%d.png", i+1), still.PNG())
		if err != nil {
			return locations, fmt.Errorf("failed to save photo %d: %w", i+1, err)
		}
		locations = append(locations, location)
	}
	return locations, nil
}

func (b *Booth) manifest(bounds image.Rectangle) sink.Manifest {
	session := b.Session()
	m := sink.Manifest{
		SessionID: session.ID,
		Label:     session.DateLabel,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		CreatedAt: b.clock.Now(),
		Photos:    make([]sink.PhotoManifest, 0, len(session.Photos)),
	}
	for i, still := range session.Photos {
		m.Photos = append(m.Photos, sink.PhotoManifest{
			Index:   i,
			Filter:  still.Filter().String(),
			Width:   still.Width(),
			Height:  still.Height(),
			TakenAt: still.TakenAt(),
		})
	}
	return m
}

// Close releases the live source
func (b *Booth) Close() error {
	if b.source == nil {
		return nil
	}
	return b.source.Close()
}

// observer records sequencer events on the booth before passing them on
type observer struct {
	b *Booth
}

func (o *observer) StateChanged(s sequencer.State) {
	o.b.mu.Lock()
	o.b.state = s
	if s.Phase == sequencer.Finished {
		o.b.session.DateLabel = strip.DateLabel(o.b.clock.Now(), o.b.dateLayout)
	}
	o.b.mu.Unlock()

	if o.b.observer != nil {
		o.b.observer.StateChanged(s)
	}
}

func (o *observer) Flash(index int) {
	o.b.mu.Lock()
	o.b.flashes++
	o.b.mu.Unlock()

	if o.b.observer != nil {
		o.b.observer.Flash(index)
	}
}
