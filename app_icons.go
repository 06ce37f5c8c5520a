package main

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"winseek/internal/icon"
	"winseek/internal/winsys"
)

// viewIconSize is the edge length of icons sent to the frontend.
const viewIconSize = icon.PlaceholderSize

const pngDataURLPrefix = "data:image/png;base64,"

var placeholderDataURL = mustEncodeIcon(icon.Placeholder())

func mustEncodeIcon(ic icon.Icon) string {
	url, err := encodeIconDataURL(ic)
	if err != nil {
		panic(err)
	}
	return url
}

// encodeIconDataURL converts ic to a viewIconSize PNG data URL.
func encodeIconDataURL(ic icon.Icon) (string, error) {
	src := ic.NRGBA()
	var img image.Image = src
	if src.Bounds().Dx() != viewIconSize || src.Bounds().Dy() != viewIconSize {
		dst := image.NewNRGBA(image.Rect(0, 0, viewIconSize, viewIconSize))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resetIconCache drops cached icons when a new session opens.
func (a *App) resetIconCache(id uuid.UUID) {
	a.iconMu.Lock()
	defer a.iconMu.Unlock()
	a.iconSession = id
	clear(a.iconCache)
}

// iconURL returns the cached data URL for h, encoding ic on first use.
func (a *App) iconURL(h winsys.Handle, ic icon.Icon) string {
	a.iconMu.Lock()
	defer a.iconMu.Unlock()
	if url, ok := a.iconCache[h]; ok {
		return url
	}
	url, err := encodeIconDataURL(ic)
	if err != nil {
		slog.Warn("[icon] PNG encoding failed, using placeholder", "hwnd", uintptr(h), "error", err)
		url = placeholderDataURL
	}
	a.iconCache[h] = url
	return url
}
