//go:build !windows

package hotkeys

import "testing"

func TestManagerRecordsBindingWithoutListening(t *testing.T) {
	m := NewManager()
	if err := m.Start("ctrl+alt+space", func() {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := m.ActiveBinding(); got != "Ctrl+Alt+Space" {
		t.Fatalf("ActiveBinding() = %q", got)
	}
	if m.Listening() {
		t.Fatal("Listening() = true on unsupported platform")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.ActiveBinding() != "" {
		t.Fatal("binding kept after Stop")
	}
}

func TestManagerRejectsNilCallback(t *testing.T) {
	if err := NewManager().Start(DefaultBinding, nil); err == nil {
		t.Fatal("Start(nil callback) error = nil")
	}
}
