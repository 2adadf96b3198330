package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/filter"
)

var ErrEmptyFrame = errors.New("live frame has no pixels")

// Still is one encoded snapshot of the live source. It is never modified after Take returns.
type Still struct {
	image   *image.RGBA
	png     []byte
	filter  filter.Filter
	takenAt time.Time
}

// Take captures frame with f baked in. The capture surface matches the frame's
// native size, except for the polaroid filter which pads it with a white frame.
func Take(frame image.Image, f filter.Filter, takenAt time.Time) (*Still, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}

	filtered := f.Apply(frame)
	surface := filtered
	if f.Framed() {
		surface = frameImage(filtered)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return nil, fmt.Errorf("failed to encode still: %w", err)
	}

	return &Still{
		image:   surface,
		png:     buf.Bytes(),
		filter:  f,
		takenAt: takenAt,
	}, nil
}

// frameImage draws src inset on a white surface with the polaroid borders
func frameImage(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0,
		w+2*filter.PolaroidBorder,
		h+filter.PolaroidBorder+filter.PolaroidBottomBorder))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	inset := image.Rect(filter.PolaroidBorder, filter.PolaroidBorder,
		filter.PolaroidBorder+w, filter.PolaroidBorder+h)
	draw.Draw(dst, inset, src, image.Point{}, draw.Src)
	return dst
}

// Image returns the decoded raster. Callers must not modify it.
func (s *Still) Image() image.Image {
	return s.image
}

// PNG returns a copy of the encoded bytes
func (s *Still) PNG() []byte {
	return bytes.Clone(s.png)
}

func (s *Still) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(s.png)
}

func (s *Still) Width() int {
	return s.image.Rect.Dx()
}

func (s *Still) Height() int {
	return s.image.Rect.Dy()
}

func (s *Still) Filter() filter.Filter {
	return s.filter
}

func (s *Still) TakenAt() time.Time {
	return s.takenAt
}
