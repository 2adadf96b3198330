package filter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
)

// Filter identifies one of the fixed visual transforms a booth offers
type Filter string

const (
	None      Filter = "none"
	Grayscale Filter = "grayscale"
	Sepia     Filter = "sepia"
	Vintage   Filter = "vintage"
	Invert    Filter = "invert"
	Polaroid  Filter = "polaroid"
)

// Polaroid frame dimensions in pixels
const (
	PolaroidBorder       = 10
	PolaroidBottomBorder = 40
)

var ErrUnknownFilter = errors.New("unknown filter")

// All returns every filter in display order
func All() []Filter {
	return []Filter{None, Grayscale, Sepia, Vintage, Invert, Polaroid}
}

// Parse resolves a filter name. An empty name means None.
func Parse(name string) (Filter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for _, f := range All() {
		if string(f) == name {
			return f, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

func (f Filter) String() string {
	return string(f)
}

// Framed reports whether captures taken with this filter get the polaroid frame
func (f Filter) Framed() bool {
	return f == Polaroid
}

// Apply returns a new RGBA image holding src with the filter's color transform.
// Transforms run on straight alpha, so translucent pixels stay valid
// premultiplied colors. src is never modified.
func (f Filter) Apply(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	transform := f.transform()
	if transform == nil {
		return dst
	}

	for y := 0; y < dst.Rect.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+dst.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			a := row[i+3]
			if a == 0 {
				continue
			}
			c := transform(color.NRGBA{
				R: unpremultiply(row[i], a),
				G: unpremultiply(row[i+1], a),
				B: unpremultiply(row[i+2], a),
				A: a,
			})
			row[i], row[i+1], row[i+2] = premultiply(c.R, a), premultiply(c.G, a), premultiply(c.B, a)
		}
	}
	return dst
}

func (f Filter) transform() func(color.NRGBA) color.NRGBA {
	switch f {
	case Grayscale:
		return grayscale
	case Sepia:
		return sepia
	case Vintage:
		return vintage
	case Invert:
		return invert
	case Polaroid:
		return polaroid
	default:
		return nil
	}
}

func grayscale(c color.NRGBA) color.NRGBA {
	y := luma(c)
	return color.NRGBA{R: y, G: y, B: y, A: c.A}
}

func sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return color.NRGBA{
		R: clamp(0.393*r + 0.769*g + 0.189*b),
		G: clamp(0.349*r + 0.686*g + 0.168*b),
		B: clamp(0.272*r + 0.534*g + 0.131*b),
		A: c.A,
	}
}

// vintage is a half-strength sepia with lifted contrast
func vintage(c color.NRGBA) color.NRGBA {
	s := sepia(c)
	mix := func(a, b uint8) uint8 {
		return clamp(contrast((float64(a)+float64(b))/2, 1.2))
	}
	return color.NRGBA{R: mix(c.R, s.R), G: mix(c.G, s.G), B: mix(c.B, s.B), A: c.A}
}

func invert(c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
}

// polaroid warms and slightly brightens the frame
func polaroid(c color.NRGBA) color.NRGBA {
	return color.NRGBA{
		R: clamp(contrast(float64(c.R), 1.1) * 1.08),
		G: clamp(contrast(float64(c.G), 1.1) * 1.04),
		B: clamp(contrast(float64(c.B), 1.1) * 0.95),
		A: c.A,
	}
}

func unpremultiply(v, a uint8) uint8 {
	if a == 255 {
		return v
	}
	u := (uint32(v)*255 + uint32(a)/2) / uint32(a)
	if u > 255 {
		return 255
	}
	return uint8(u)
}

func premultiply(v, a uint8) uint8 {
	return uint8((uint32(v)*uint32(a) + 127) / 255)
}

func luma(c color.NRGBA) uint8 {
	return clamp(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B))
}

func contrast(v, amount float64) float64 {
	return (v-127.5)*amount + 127.5
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
