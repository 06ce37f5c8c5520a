// Package focus brings a chosen window to the foreground.
package focus

import (
	"errors"
	"fmt"
	"log/slog"

	"winseek/internal/winsys"
)

// ErrWindowGone means the handle no longer names a window.
var ErrWindowGone = errors.New("window no longer exists")

// Activate restores h if it is minimized and switches to it. A failed restore
// is logged and does not stop the switch.
func Activate(sys winsys.System, h winsys.Handle) error {
	if sys.IsMinimized(h) {
		if err := sys.Restore(h); err != nil {
			slog.Error("[focus] failed to restore minimized window", "hwnd", uintptr(h), "error", err)
		}
	}
	if err := sys.SwitchTo(h); err != nil {
		if errors.Is(err, winsys.ErrInvalidWindow) {
			return fmt.Errorf("activate window %#x: %w", uintptr(h), ErrWindowGone)
		}
		return fmt.Errorf("activate window %#x: %w", uintptr(h), err)
	}
	slog.Debug("[focus] switched to window", "hwnd", uintptr(h))
	return nil
}
