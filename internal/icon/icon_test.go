package icon

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeBGRAConvertsChannelOrder(t *testing.T) {
	raw := []byte{10, 20, 30, 40}
	got, err := DecodeBGRA(1, 1, raw)
	if err != nil {
		t.Fatalf("DecodeBGRA() error = %v", err)
	}
	want := []byte{30, 20, 10, 40}
	if !bytes.Equal(got.Pix, want) {
		t.Fatalf("Pix = %v, want %v", got.Pix, want)
	}
	if got.Width != 1 || got.Height != 1 {
		t.Fatalf("size = %dx%d, want 1x1", got.Width, got.Height)
	}
}

func TestDecodeBGRADoesNotAliasInput(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	got, err := DecodeBGRA(2, 1, raw)
	if err != nil {
		t.Fatalf("DecodeBGRA() error = %v", err)
	}
	raw[0] = 99
	if got.Pix[2] != 1 {
		t.Fatalf("decoded icon changed after input mutation: %v", got.Pix)
	}
	if want := []byte{3, 2, 1, 4, 7, 6, 5, 8}; !bytes.Equal(got.Pix, want) {
		t.Fatalf("Pix = %v, want %v", got.Pix, want)
	}
}

func TestDecodeBGRAKeepsStraightAlpha(t *testing.T) {
	// A premultiplying decoder would scale the color channels down by alpha.
	got, err := DecodeBGRA(1, 1, []byte{200, 150, 100, 0})
	if err != nil {
		t.Fatalf("DecodeBGRA() error = %v", err)
	}
	if want := []byte{100, 150, 200, 0}; !bytes.Equal(got.Pix, want) {
		t.Fatalf("Pix = %v, want %v", got.Pix, want)
	}
}

func TestDecodeBGRARejectsBadLength(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		raw    []byte
	}{
		{name: "short", width: 2, height: 2, raw: make([]byte, 15)},
		{name: "long", width: 2, height: 2, raw: make([]byte, 17)},
		{name: "empty", width: 1, height: 1, raw: nil},
		{name: "zero width", width: 0, height: 4, raw: nil},
		{name: "negative height", width: 4, height: -1, raw: make([]byte, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBGRA(tt.width, tt.height, tt.raw)
			if !errors.Is(err, ErrPixelLength) {
				t.Fatalf("DecodeBGRA() error = %v, want ErrPixelLength", err)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	if p.Width != PlaceholderSize || p.Height != PlaceholderSize {
		t.Fatalf("size = %dx%d, want %dx%d", p.Width, p.Height, PlaceholderSize, PlaceholderSize)
	}
	if len(p.Pix) != PlaceholderSize*PlaceholderSize*4 {
		t.Fatalf("len(Pix) = %d", len(p.Pix))
	}
	if !p.IsTransparent() {
		t.Fatal("placeholder is not fully transparent")
	}

	// Each call returns an independent buffer.
	p.Pix[3] = 0xff
	if !Placeholder().IsTransparent() {
		t.Fatal("placeholder buffer is shared between calls")
	}
}

func TestNRGBAViewSharesPixels(t *testing.T) {
	ic, err := DecodeBGRA(2, 1, []byte{10, 20, 30, 40, 50, 60, 70, 80})
	if err != nil {
		t.Fatalf("DecodeBGRA() error = %v", err)
	}
	img := ic.NRGBA()
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	c := img.NRGBAAt(1, 0)
	if c.R != 70 || c.G != 60 || c.B != 50 || c.A != 80 {
		t.Fatalf("pixel(1,0) = %+v", c)
	}
}
