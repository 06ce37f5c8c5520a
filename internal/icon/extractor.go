package icon

import (
	"errors"
	"fmt"
	"log/slog"

	"winseek/internal/winsys"
)

// IconSystem is the subset of winsys.System the extractor needs.
type IconSystem interface {
	WindowIcon(h winsys.Handle, src winsys.IconSource) winsys.IconHandle
	IconHotspot(icon winsys.IconHandle) (x, y uint32, err error)
	RenderIcon(icon winsys.IconHandle, width, height int) ([]byte, error)
}

// Extractor resolves, renders and decodes window icons.
type Extractor struct {
	sys IconSystem
}

// NewExtractor creates an Extractor backed by sys.
func NewExtractor(sys IconSystem) *Extractor {
	return &Extractor{sys: sys}
}

// Extract returns the decoded icon for h. Every failure is an *ExtractError
// wrapping one of the package sentinels; callers substitute Placeholder.
func (e *Extractor) Extract(h winsys.Handle) (Icon, error) {
	hicon, src, ok := e.resolve(h)
	if !ok {
		return Icon{}, &ExtractError{Handle: h, Step: "resolve", Err: ErrNoIcon}
	}

	x, y, err := e.sys.IconHotspot(hicon)
	if err != nil {
		return Icon{}, &ExtractError{Handle: h, Step: "icon-info", Err: fmt.Errorf("%w: %v", ErrGetIconInfo, err)}
	}
	// The hotspot of an icon sits at its center, so doubling it yields the
	// bitmap size. This holds for icons but is not a documented contract.
	width, height := int(x)*2, int(y)*2
	if width == 0 || height == 0 {
		return Icon{}, &ExtractError{Handle: h, Step: "icon-info", Err: fmt.Errorf("%w: zero hotspot", ErrGetIconInfo)}
	}
	slog.Debug("[icon] resolved", "hwnd", uintptr(h), "source", src.String(), "width", width, "height", height)

	raw, err := e.sys.RenderIcon(hicon, width, height)
	if err != nil {
		return Icon{}, &ExtractError{Handle: h, Step: "render", Err: classifyRenderError(err)}
	}

	decoded, err := DecodeBGRA(width, height, raw)
	if err != nil {
		return Icon{}, &ExtractError{Handle: h, Step: "decode", Err: err}
	}
	return decoded, nil
}

func (e *Extractor) resolve(h winsys.Handle) (winsys.IconHandle, winsys.IconSource, bool) {
	for _, src := range winsys.IconLookupOrder {
		if hicon := e.sys.WindowIcon(h, src); hicon != 0 {
			return hicon, src, true
		}
		slog.Debug("[icon] no icon from source, trying next", "hwnd", uintptr(h), "source", src.String())
	}
	return 0, 0, false
}

func classifyRenderError(err error) error {
	switch {
	case errors.Is(err, winsys.ErrSurfaceCreation):
		return fmt.Errorf("%w: %v", ErrSurfaceCreation, err)
	case errors.Is(err, winsys.ErrIconInfo):
		return fmt.Errorf("%w: %v", ErrGetIconInfo, err)
	default:
		return fmt.Errorf("%w: %v", ErrReadback, err)
	}
}
