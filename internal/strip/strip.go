package strip

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Strip geometry in pixels
const (
	Padding     = 15
	DateHeight  = 40
	BorderInset = 5
	BorderWidth = 5
	FontSize    = 20
)

// Filename is the suggested name for a downloaded strip
const Filename = "photo-strip.png"

// DefaultDateLayout renders dates like "October 14, 2026"
const DefaultDateLayout = "January 2, 2006"

var (
	Background  = color.RGBA{R: 0xff, G: 0xf9, B: 0xfb, A: 0xff}
	BorderColor = color.RGBA{R: 0xa6, G: 0x7c, B: 0x52, A: 0xff}
	LabelColor  = color.RGBA{R: 0x5a, G: 0x5a, B: 0x5a, A: 0xff}
)

var (
	ErrNoStills        = errors.New("no stills to composite")
	ErrIncompleteStrip = errors.New("strip needs one still per slot")
)

var labelFont = sync.OnceValues(func() (*sfnt.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Layout describes where everything lands on a strip canvas
type Layout struct {
	Count         int
	CellWidth     int
	CellHeight    int
	Width         int
	Height        int
	LabelBaseline int
}

// NewLayout computes the canvas for count cells of w×h pixels
func NewLayout(count, w, h int) Layout {
	width := w + 2*Padding
	height := count*h + (count+1)*Padding + DateHeight
	return Layout{
		Count:         count,
		CellWidth:     w,
		CellHeight:    h,
		Width:         width,
		Height:        height,
		LabelBaseline: height - DateHeight/2,
	}
}

// Cell returns the rectangle for the still at index i
func (l Layout) Cell(i int) image.Rectangle {
	y := Padding + i*(l.CellHeight+Padding)
	return image.Rect(Padding, y, Padding+l.CellWidth, y+l.CellHeight)
}

// Compose renders count images and label into one strip. The cell size comes
// from the first image; images of a different size are scaled into their cell.
func Compose(images []image.Image, count int, label string) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, ErrNoStills
	}
	if len(images) != count {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIncompleteStrip, len(images), count)
	}

	first := images[0].Bounds()
	layout := NewLayout(count, first.Dx(), first.Dy())
	canvas := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))

	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	strokeBorder(canvas)

	for i, img := range images {
		cell := layout.Cell(i)
		b := img.Bounds()
		if b.Dx() == layout.CellWidth && b.Dy() == layout.CellHeight {
			draw.Draw(canvas, cell, img, b.Min, draw.Over)
			continue
		}
		draw.BiLinear.Scale(canvas, cell, img, b, draw.Over, nil)
	}

	if err := drawLabel(canvas, layout, label); err != nil {
		return nil, err
	}

	return canvas, nil
}

// strokeBorder draws a BorderWidth line centered on the rectangle inset
// BorderInset pixels from the canvas edges.
func strokeBorder(canvas *image.RGBA) {
	b := canvas.Bounds()
	outer := b.Inset(BorderInset - BorderWidth/2)
	inner := outer.Inset(BorderWidth)
	if inner.Empty() {
		draw.Draw(canvas, outer, image.NewUniform(BorderColor), image.Point{}, draw.Src)
		return
	}

	src := image.NewUniform(BorderColor)
	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y),
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y),
	}
	for _, r := range bands {
		draw.Draw(canvas, r, src, image.Point{}, draw.Src)
	}
}

func drawLabel(canvas *image.RGBA, layout Layout, label string) error {
	if label == "" {
		return nil
	}

	f, err := labelFont()
	if err != nil {
		return fmt.Errorf("failed to parse label font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create label face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(LabelColor),
		Face: face,
	}
	advance := d.MeasureString(label)
	d.Dot = fixed.Point26_6{
		X: fixed.I(layout.Width)/2 - advance/2,
		Y: fixed.I(layout.LabelBaseline),
	}
	d.DrawString(label)
	return nil
}

// Encode renders the strip as PNG
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode strip: %w", err)
	}
	return buf.Bytes(), nil
}

// DateLabel formats t with layout, falling back to DefaultDateLayout
func DateLabel(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}
