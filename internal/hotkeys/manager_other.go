//go:build !windows

package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
)

// Manager validates bindings on platforms without global hotkeys. The
// callback never fires and Listening is always false.
type Manager struct {
	mu      sync.Mutex
	binding string
}

// NewManager returns a Manager with nothing registered.
func NewManager() *Manager {
	return &Manager{}
}

// Start parses spec and records it.
func (m *Manager) Start(spec string, onTrigger func()) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	binding, err := ParseBinding(spec)
	if err != nil {
		return err
	}
	slog.Warn("[hotkey] global hotkeys are not supported on this platform", "binding", binding.Normalized())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.binding = binding.Normalized()
	return nil
}

// Stop forgets the recorded binding.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binding = ""
	return nil
}

// ActiveBinding returns the binding recorded by Start.
func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binding
}

// Listening is always false here.
func (m *Manager) Listening() bool { return false }
