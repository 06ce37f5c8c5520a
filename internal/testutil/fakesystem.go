package testutil

import (
	"sync"

	"winseek/internal/winsys"
)

// FakeWindow describes one top-level window served by FakeSystem.
type FakeWindow struct {
	Handle     winsys.Handle
	Title      string
	ClassName  string
	Hidden     bool
	ToolWindow bool
	Minimized  bool

	// Icons maps lookup steps to the icon handle they return. Missing steps
	// return zero.
	Icons map[winsys.IconSource]winsys.IconHandle
}

// FakeIcon describes how FakeSystem answers geometry and render calls for one
// icon handle.
type FakeIcon struct {
	HotspotX  uint32
	HotspotY  uint32
	InfoErr   error
	Pixels    []byte
	RenderErr error
}

// FakeSystem is an in-memory winsys.System for tests.
type FakeSystem struct {
	mu sync.Mutex

	Windows []FakeWindow
	IconSet map[winsys.IconHandle]FakeIcon

	// RestoreErr and SwitchErr are returned by Restore and SwitchTo.
	RestoreErr error
	SwitchErr  error

	// IconQueries records every WindowIcon call in order.
	IconQueries []IconQuery
	Restored    []winsys.Handle
	Switched    []winsys.Handle
	EnumCount   int
}

// IconQuery is one recorded WindowIcon call.
type IconQuery struct {
	Handle winsys.Handle
	Source winsys.IconSource
}

var _ winsys.System = (*FakeSystem)(nil)

// EnumerateTopLevel visits the configured windows in slice order.
func (f *FakeSystem) EnumerateTopLevel(visit func(winsys.TopLevel) bool) {
	f.mu.Lock()
	f.EnumCount++
	windows := append([]FakeWindow(nil), f.Windows...)
	f.mu.Unlock()

	for _, w := range windows {
		ok := visit(winsys.TopLevel{
			Handle:     w.Handle,
			Title:      w.Title,
			ClassName:  w.ClassName,
			Visible:    !w.Hidden,
			ToolWindow: w.ToolWindow,
		})
		if !ok {
			return
		}
	}
}

func (f *FakeSystem) WindowIcon(h winsys.Handle, src winsys.IconSource) winsys.IconHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IconQueries = append(f.IconQueries, IconQuery{Handle: h, Source: src})
	w, ok := f.findLocked(h)
	if !ok {
		return 0
	}
	return w.Icons[src]
}

func (f *FakeSystem) IconHotspot(icon winsys.IconHandle) (uint32, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ic, ok := f.IconSet[icon]
	if !ok {
		return 0, 0, winsys.ErrIconInfo
	}
	if ic.InfoErr != nil {
		return 0, 0, ic.InfoErr
	}
	return ic.HotspotX, ic.HotspotY, nil
}

func (f *FakeSystem) RenderIcon(icon winsys.IconHandle, _, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ic, ok := f.IconSet[icon]
	if !ok {
		return nil, winsys.ErrReadback
	}
	if ic.RenderErr != nil {
		return nil, ic.RenderErr
	}
	return append([]byte(nil), ic.Pixels...), nil
}

func (f *FakeSystem) IsMinimized(h winsys.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.findLocked(h)
	return ok && w.Minimized
}

func (f *FakeSystem) Restore(h winsys.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Restored = append(f.Restored, h)
	return f.RestoreErr
}

func (f *FakeSystem) SwitchTo(h winsys.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.findLocked(h); !ok {
		return winsys.ErrInvalidWindow
	}
	if f.SwitchErr != nil {
		return f.SwitchErr
	}
	f.Switched = append(f.Switched, h)
	return nil
}

// Enumerations returns how many times EnumerateTopLevel ran.
func (f *FakeSystem) Enumerations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.EnumCount
}

// SwitchedHandles returns a copy of the handles passed to a successful SwitchTo.
func (f *FakeSystem) SwitchedHandles() []winsys.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]winsys.Handle(nil), f.Switched...)
}

func (f *FakeSystem) findLocked(h winsys.Handle) (FakeWindow, bool) {
	for _, w := range f.Windows {
		if w.Handle == h {
			return w, true
		}
	}
	return FakeWindow{}, false
}

// SolidBGRA returns a width x height B,G,R,A buffer where every pixel holds the
// given channel values.
func SolidBGRA(width, height int, b, g, r, a byte) []byte {
	out := make([]byte, width*height*4)
	for i := 0; i < len(out); i += 4 {
		out[i+0] = b
		out[i+1] = g
		out[i+2] = r
		out[i+3] = a
	}
	return out
}
