// Package winsys abstracts the Win32 window, icon and focus primitives used by
// the switcher behind a single capability interface. The concrete binding lives
// in system_windows.go; every other platform gets ErrUnsupported from New.
package winsys

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
)

// Handle is an opaque top-level window handle (HWND).
type Handle uintptr

// IconHandle is an opaque icon handle (HICON). Zero means "no icon".
type IconHandle uintptr

// IconSource names one step of the window icon lookup chain.
type IconSource int

const (
	// IconBigMessage asks the window for its big icon via WM_GETICON.
	IconBigMessage IconSource = iota
	// IconBigClass reads the big icon registered on the window class.
	IconBigClass
	// IconSmallMessage asks the window for its small icon via WM_GETICON.
	IconSmallMessage
	// IconSmallClass reads the small icon registered on the window class.
	IconSmallClass
)

func (s IconSource) String() string {
	switch s {
	case IconBigMessage:
		return "big-message"
	case IconBigClass:
		return "big-class"
	case IconSmallMessage:
		return "small-message"
	case IconSmallClass:
		return "small-class"
	default:
		return fmt.Sprintf("icon-source(%d)", int(s))
	}
}

// IconLookupOrder is the order in which icon sources are tried.
var IconLookupOrder = []IconSource{
	IconBigMessage,
	IconBigClass,
	IconSmallMessage,
	IconSmallClass,
}

// TopLevel is the raw description of one top-level window as reported by the
// platform, before any eligibility filtering.
type TopLevel struct {
	Handle     Handle
	Title      string
	ClassName  string
	Visible    bool // WS_VISIBLE
	ToolWindow bool // WS_EX_TOOLWINDOW
}

var (
	// ErrUnsupported is returned by New on platforms without a binding.
	ErrUnsupported = fmt.Errorf("window system is not supported on %s/%s; supported: windows", runtime.GOOS, runtime.GOARCH)
	// ErrIconInfo reports that GetIconInfo failed for an icon handle.
	ErrIconInfo = errors.New("GetIconInfo failed")
	// ErrSurfaceCreation reports that the off-screen DIB could not be created.
	ErrSurfaceCreation = errors.New("CreateDIBSection failed")
	// ErrReadback reports that the rendered pixels could not be read back.
	ErrReadback = errors.New("GetDIBits failed")
	// ErrInvalidWindow reports a handle that no longer names a window.
	ErrInvalidWindow = errors.New("window handle is no longer valid")
	// ErrRestoreFailed reports a window that stayed minimized after a restore.
	ErrRestoreFailed = errors.New("window is still minimized after restore")
)

// System is the capability interface over the platform window manager.
//
// Implementations are called from one goroutine at a time; enumeration is not
// reentrant.
type System interface {
	// EnumerateTopLevel calls visit for each top-level window in platform
	// order. Returning false from visit stops the enumeration early. visit must
	// not retain the TopLevel beyond the call unless it copies it.
	EnumerateTopLevel(visit func(TopLevel) bool)

	// WindowIcon performs one icon lookup step. Zero means the source has no
	// icon for this window.
	WindowIcon(h Handle, src IconSource) IconHandle

	// IconHotspot returns the hotspot coordinates recorded in the icon info.
	IconHotspot(icon IconHandle) (x, y uint32, err error)

	// RenderIcon draws icon into a top-down 32-bit surface of the given size
	// and returns the raw pixel bytes in B,G,R,A order.
	RenderIcon(icon IconHandle, width, height int) ([]byte, error)

	// IsMinimized reports whether the window is iconic.
	IsMinimized(h Handle) bool

	// Restore returns a minimized window to its normal placement.
	Restore(h Handle) error

	// SwitchTo brings the window to the foreground and gives it input focus.
	SwitchTo(h Handle) error
}

// NewFunc is replaced by tests; production code uses the platform binding.
var NewFunc = newPlatformSystem

// New returns the System for the current OS.
func New() (System, error) {
	return NewFunc()
}

// restoreOutcome reports a restore failure only when the window is still
// minimized afterwards. callErr may be a stale last-error from an earlier
// call and is attached as detail, never used on its own.
func restoreOutcome(stillMinimized bool, callErr error) error {
	if !stillMinimized {
		return nil
	}
	if callErr == nil || errors.Is(callErr, syscall.Errno(0)) {
		return ErrRestoreFailed
	}
	return fmt.Errorf("%w: %v", ErrRestoreFailed, callErr)
}
