package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewWatcherRequiresCallback(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "config.yaml"), DefaultConfig(), nil); err == nil {
		t.Fatal("NewWatcher(nil) error = nil")
	}
}

func TestWatcherReportsChangedSettings(t *testing.T) {
	path := newConfigPathForSaveTest(t, "config.yaml")
	initial, err := EnsureFile(path)
	if err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}

	changes := make(chan Config, 4)
	w, err := NewWatcher(path, initial, func(cfg Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() { w.Run(ctx) })
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	next := Clone(initial)
	next.GlobalHotkey = "Alt+F3"
	if _, err := Save(path, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	select {
	case got := <-changes:
		if got.GlobalHotkey != "Alt+F3" {
			t.Fatalf("reloaded GlobalHotkey = %q", got.GlobalHotkey)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}

	// A write that changes nothing is not reported.
	if _, err := Save(path, next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changes:
		t.Fatalf("unexpected reload: %+v", got)
	case <-time.After(4 * watchDebounce):
	}
}
