//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	// Application hotkey IDs must stay within 0x0000..0xBFFF.
	minHotkeyID int32 = 0x4000
	maxHotkeyID int32 = 0xBFFF

	stopTimeout = 2 * time.Second
)

var lastHotkeyID atomic.Int32

func init() {
	lastHotkeyID.Store(minHotkeyID)
}

// winMsg mirrors MSG. The layout must match Win32 on 32- and 64-bit.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	ptX      int32
	ptY      int32
	lPrivate uint32
}

// registration is one live hotkey and the thread running its message loop.
type registration struct {
	id       int32
	threadID uint32
	done     chan struct{}
	binding  string
}

type loopReady struct {
	threadID uint32
	err      error
}

// Manager owns at most one global hotkey registration.
type Manager struct {
	mu     sync.Mutex
	active *registration
}

// NewManager returns a Manager with nothing registered.
func NewManager() *Manager {
	return &Manager{}
}

// Start registers spec and calls onTrigger once per press. onTrigger runs on
// the listener thread, so presses are reported in order and a slow callback
// delays the next one. Any previous registration is replaced.
func (m *Manager) Start(spec string, onTrigger func()) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	binding, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(); err != nil {
		slog.Warn("[hotkey] previous registration did not stop cleanly", "error", err)
	}

	id := lastHotkeyID.Add(1)
	if id > maxHotkeyID {
		return fmt.Errorf("hotkey ID range exhausted (id=%#x)", id)
	}

	ready := make(chan loopReady, 1)
	done := make(chan struct{})
	go listen(id, binding, onTrigger, ready, done)

	r := <-ready
	if r.err != nil {
		return fmt.Errorf("register hotkey %q: %w", binding.Normalized(), r.err)
	}

	m.active = &registration{
		id:       id,
		threadID: r.threadID,
		done:     done,
		binding:  binding.Normalized(),
	}
	slog.Info("[hotkey] listening", "binding", binding.Normalized(), "id", id)
	return nil
}

// Stop ends the message loop and unregisters the hotkey.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBinding returns the normalized binding, or "" when not listening.
func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.binding
}

// Listening reports whether a hotkey is registered.
func (m *Manager) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

func (m *Manager) stopLocked() error {
	reg := m.active
	if reg == nil {
		return nil
	}
	m.active = nil

	stopErr := postQuit(reg.threadID)
	if stopErr != nil {
		// Cross-thread unregister normally fails, but it is the only lever left
		// when the loop cannot be told to quit.
		if err := unregisterHotKey(reg.id); err != nil {
			slog.Warn("[hotkey] fallback unregister failed", "id", reg.id, "error", err)
		}
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-reg.done:
		slog.Info("[hotkey] stopped", "binding", reg.binding)
	case <-timer.C:
		slog.Warn("[hotkey] message loop did not exit in time", "id", reg.id)
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey loop stop timed out (id=%#x)", reg.id))
	}
	return stopErr
}

// listen runs the message loop on a locked OS thread. RegisterHotKey binds the
// hotkey to the calling thread, so registration, the loop and unregistration
// must all happen here.
func listen(id int32, binding Binding, onTrigger func(), ready chan<- loopReady, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	threadID := windows.GetCurrentThreadId()

	// PeekMessageW creates the thread message queue so PostThreadMessageW
	// from Stop can reach it.
	var msg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, pmNoRemove)

	if err := registerHotKey(id, binding); err != nil {
		ready <- loopReady{err: err}
		return
	}
	defer func() {
		if err := unregisterHotKey(id); err != nil {
			slog.Error("[hotkey] unregister on loop exit failed", "id", id, "error", err)
		}
	}()

	ready <- loopReady{threadID: threadID}

	for {
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Error("[hotkey] GetMessageW failed, leaving loop", "id", id, "error", lastErr)
			return
		case 0:
			return
		}
		if msg.message == wmHotkey && int32(msg.wParam) == id {
			deliver(onTrigger)
		}
	}
}

// deliver keeps a panicking callback from tearing down the listener thread.
func deliver(onTrigger func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[hotkey] trigger callback panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	onTrigger()
}

func registerHotKey(id int32, binding Binding) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(binding.Modifiers()), uintptr(binding.Key()))
	if res != 0 {
		return nil
	}
	return win32Error("RegisterHotKey", err)
}

func unregisterHotKey(id int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	if res != 0 {
		return nil
	}
	return win32Error("UnregisterHotKey", err)
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT to thread 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	return win32Error("PostThreadMessageW", err)
}

func win32Error(call string, err error) error {
	if err == nil || errors.Is(err, syscall.Errno(0)) {
		return fmt.Errorf("%s failed", call)
	}
	return fmt.Errorf("%s: %w", call, err)
}
