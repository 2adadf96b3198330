package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/filter"
)

func testFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: 90, A: 255})
		}
	}
	return img
}

func TestTakeDimensions(t *testing.T) {
	const w, h = 64, 48

	for _, f := range filter.All() {
		t.Run(f.String(), func(t *testing.T) {
			still, err := Take(testFrame(w, h), f, time.Now())
			if err != nil {
				t.Fatalf("Take failed: %v", err)
			}

			wantW, wantH := w, h
			if f == filter.Polaroid {
				wantW = w + 2*filter.PolaroidBorder
				wantH = h + filter.PolaroidBorder + filter.PolaroidBottomBorder
			}
			if still.Width() != wantW || still.Height() != wantH {
				t.Errorf("Expected %dx%d, got %dx%d", wantW, wantH, still.Width(), still.Height())
			}

			decoded, err := png.Decode(bytes.NewReader(still.PNG()))
			if err != nil {
				t.Fatalf("PNG does not decode: %v", err)
			}
			if decoded.Bounds().Dx() != wantW || decoded.Bounds().Dy() != wantH {
				t.Errorf("Encoded PNG is %v", decoded.Bounds())
			}
		})
	}
}

func TestTakePolaroidFrame(t *testing.T) {
	frame := testFrame(20, 10)
	still, err := Take(frame, filter.Polaroid, time.Now())
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}

	img := still.Image().(*image.RGBA)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	corners := []image.Point{
		{0, 0},
		{still.Width() - 1, 0},
		{0, still.Height() - 1},
		{still.Width() / 2, still.Height() - filter.PolaroidBottomBorder/2},
	}
	for _, p := range corners {
		if got := img.RGBAAt(p.X, p.Y); got != white {
			t.Errorf("Expected white border at %v, got %v", p, got)
		}
	}

	want := filter.Polaroid.Apply(frame).RGBAAt(3, 4)
	if got := img.RGBAAt(filter.PolaroidBorder+3, filter.PolaroidBorder+4); got != want {
		t.Errorf("Expected inset pixel %v, got %v", want, got)
	}
}

func TestTakeBakesFilter(t *testing.T) {
	frame := testFrame(8, 8)
	still, err := Take(frame, filter.Invert, time.Now())
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	img := still.Image().(*image.RGBA)
	if got, want := img.RGBAAt(2, 2), filter.Invert.Apply(frame).RGBAAt(2, 2); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if still.Filter() != filter.Invert {
		t.Errorf("Expected filter invert, got %s", still.Filter())
	}
}

func TestTakeEmptyFrame(t *testing.T) {
	if _, err := Take(image.NewRGBA(image.Rect(0, 0, 0, 0)), filter.None, time.Now()); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}
	if _, err := Take(nil, filter.None, time.Now()); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Expected ErrEmptyFrame for nil frame, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	still, err := Take(testFrame(4, 4), filter.None, time.Now())
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}

	uri := still.DataURI()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("Unexpected data URI prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("Invalid base64: %v", err)
	}
	if !bytes.Equal(raw, still.PNG()) {
		t.Error("Data URI payload does not match PNG bytes")
	}
}

func TestPNGReturnsCopy(t *testing.T) {
	still, err := Take(testFrame(4, 4), filter.None, time.Now())
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	b := still.PNG()
	b[0] ^= 0xff
	if bytes.Equal(b, still.PNG()) {
		t.Error("Mutating PNG() result changed the still")
	}
}
