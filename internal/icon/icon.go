// Package icon turns a window's icon into a decoded RGBA pixel buffer.
//
// The lookup walks the four icon sources in winsys.IconLookupOrder, derives the
// icon size from its hotspot, renders it through GDI and converts the B,G,R,A
// readback into straight (non-premultiplied) R,G,B,A.
package icon

import (
	"errors"
	"fmt"
	"image"

	"winseek/internal/winsys"
)

// PlaceholderSize is the edge length of the transparent fallback icon.
const PlaceholderSize = 32

// Icon is a decoded RGBA8 image. Pix holds Width*Height*4 bytes in row-major,
// top-down order. Alpha is not premultiplied.
type Icon struct {
	Width  int
	Height int
	Pix    []byte
}

// Placeholder returns a fully transparent PlaceholderSize x PlaceholderSize icon.
func Placeholder() Icon {
	return Icon{
		Width:  PlaceholderSize,
		Height: PlaceholderSize,
		Pix:    make([]byte, PlaceholderSize*PlaceholderSize*4),
	}
}

// IsTransparent reports whether every pixel has zero alpha.
func (ic Icon) IsTransparent() bool {
	for i := 3; i < len(ic.Pix); i += 4 {
		if ic.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// NRGBA exposes the icon as an image without copying the pixel buffer.
func (ic Icon) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    ic.Pix,
		Stride: ic.Width * 4,
		Rect:   image.Rect(0, 0, ic.Width, ic.Height),
	}
}

var (
	// ErrNoIcon means none of the four icon sources produced a handle.
	ErrNoIcon = errors.New("window has no icon")
	// ErrGetIconInfo means the icon metadata could not be read.
	ErrGetIconInfo = errors.New("icon info unavailable")
	// ErrSurfaceCreation means the off-screen render surface could not be created.
	ErrSurfaceCreation = errors.New("render surface creation failed")
	// ErrReadback means the rendered pixels could not be read back.
	ErrReadback = errors.New("pixel readback failed")
	// ErrPixelLength means the raw pixel buffer does not match the icon geometry.
	ErrPixelLength = errors.New("pixel buffer length mismatch")
)

// ExtractError records which extraction step failed for which window.
type ExtractError struct {
	Handle winsys.Handle
	Step   string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract icon for window %#x: %s: %v", uintptr(e.Handle), e.Step, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// DecodeBGRA converts a top-down B,G,R,A byte buffer into an RGBA Icon.
// raw must hold exactly width*height*4 bytes.
func DecodeBGRA(width, height int, raw []byte) (Icon, error) {
	if width <= 0 || height <= 0 {
		return Icon{}, fmt.Errorf("%w: invalid size %dx%d", ErrPixelLength, width, height)
	}
	want := width * height * 4
	if len(raw) != want {
		return Icon{}, fmt.Errorf("%w: got %d bytes, want %d for %dx%d", ErrPixelLength, len(raw), want, width, height)
	}

	pix := make([]byte, want)
	for i := 0; i < want; i += 4 {
		pix[i+0] = raw[i+2] // R
		pix[i+1] = raw[i+1] // G
		pix[i+2] = raw[i+0] // B
		pix[i+3] = raw[i+3] // A
	}
	return Icon{Width: width, Height: height, Pix: pix}, nil
}
