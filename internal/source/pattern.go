package source

import (
	"context"
	"image"
	"image/color"
	"sync"
)

var barColors = []color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff},
}

// Pattern renders color bars that shift one bar per frame, so
// consecutive captures are distinguishable.
type Pattern struct {
	width  int
	height int

	mu     sync.Mutex
	frame  int
	closed bool
}

func NewPattern(width, height int) *Pattern {
	return &Pattern{width: width, height: height}
}

func (p *Pattern) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	shift := p.frame
	p.frame++
	p.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	barWidth := max(p.width/len(barColors), 1)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			c := barColors[(x/barWidth+shift)%len(barColors)]
			// Bottom quarter is a gray ramp
			if y >= p.height*3/4 {
				v := uint8(x * 255 / max(p.width-1, 1))
				c = color.RGBA{R: v, G: v, B: v, A: 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
