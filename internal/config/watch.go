package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an atomic save produces.
const watchDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	path     string
	onChange func(Config)
	fs       *fsnotify.Watcher
	last     Config
}

// NewWatcher watches the directory containing path. The directory is watched
// instead of the file because an atomic save replaces the file. onChange runs
// on the Run goroutine after each successful reload that changed a setting.
func NewWatcher(path string, current Config, onChange func(Config)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("config watcher requires onChange")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, onChange: onChange, fs: fsw, last: Clone(current)}, nil
}

// Run delivers reloads until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("[config] watcher error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Clean(event.Name), w.path)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("[config] reload failed, keeping current settings", "path", w.path, "error", err)
		return
	}
	if Equal(cfg, w.last) {
		return
	}
	slog.Info("[config] reloaded", "path", w.path, "global_hotkey", cfg.GlobalHotkey, "hotkey_enabled", cfg.HotkeyOn())
	w.last = Clone(cfg)
	w.onChange(cfg)
}
