package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Default live frame size, matching the ideal webcam constraints
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	ErrSourceUnavailable = errors.New("image source unavailable")
	ErrClosed            = errors.New("image source closed")
)

// Source is a continuously updating live raster feed
type Source interface {
	// Frame returns the most recent frame. Callers must not modify it.
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Open builds a source from a target string:
//
//	pattern            synthetic test card, 640x480
//	pattern:WxH        synthetic test card of the given size
//	dir:PATH           replay images from a directory
//	http(s)://URL      snapshot endpoint of a network camera
func Open(target string) (Source, error) {
	target = strings.TrimSpace(target)
	kind, arg, _ := strings.Cut(target, ":")

	switch {
	case target == "" || kind == "pattern":
		w, h, err := parseSize(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return NewPattern(w, h), nil
	case kind == "dir":
		return NewDir(arg)
	case kind == "http" || kind == "https":
		return NewSnapshot(target)
	default:
		return nil, fmt.Errorf("%w: unsupported source %q", ErrSourceUnavailable, target)
	}
}

func parseSize(s string) (int, int, error) {
	if s == "" {
		return DefaultWidth, DefaultHeight, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}
