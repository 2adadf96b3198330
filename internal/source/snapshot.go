package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// maxSnapshotSize caps a single frame download at 10MB
const maxSnapshotSize = 10 * 1024 * 1024

// Snapshot polls the still-image endpoint of a network camera, one GET per frame
type Snapshot struct {
	URL        string
	HTTPClient *http.Client

	closed atomic.Bool
}

func NewSnapshot(rawURL string) (*Snapshot, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid snapshot URL %q", ErrSourceUnavailable, rawURL)
	}
	return &Snapshot{
		URL: rawURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (s *Snapshot) Frame(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	slog.Debug("Fetched snapshot", "format", format, "bytes", len(data), "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

func (s *Snapshot) Close() error {
	s.closed.Store(true)
	s.HTTPClient.CloseIdleConnections()
	return nil
}
