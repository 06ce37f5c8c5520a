//go:build windows

package hotkeys

import (
	"testing"
	"unsafe"
)

func TestWinMsgSize(t *testing.T) {
	var want uintptr
	switch unsafe.Sizeof(uintptr(0)) {
	case 8:
		want = 48
	case 4:
		want = 28
	default:
		t.Skip("unknown pointer size")
	}
	if got := unsafe.Sizeof(winMsg{}); got != want {
		t.Fatalf("unsafe.Sizeof(winMsg{}) = %d, want %d", got, want)
	}
}

func TestStartRejectsNilCallback(t *testing.T) {
	m := NewManager()
	if err := m.Start(DefaultBinding, nil); err == nil {
		t.Fatal("Start(nil callback) error = nil")
	}
	if m.Listening() {
		t.Fatal("Listening() = true after failed Start")
	}
}

func TestStartRejectsInvalidBinding(t *testing.T) {
	m := NewManager()
	if err := m.Start("Meta+Q", func() {}); err == nil {
		t.Fatal("Start(invalid) error = nil")
	}
	if m.ActiveBinding() != "" {
		t.Fatalf("ActiveBinding() = %q, want empty", m.ActiveBinding())
	}
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	if err := NewManager().Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestDeliverRecoversPanic(t *testing.T) {
	deliver(func() { panic("boom") })
}
