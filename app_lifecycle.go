package main

import (
	"context"
	"log/slog"
	"time"

	"winseek/internal/config"
	"winseek/internal/ipc"
	"winseek/internal/workerutil"
)

var (
	configPathFn       = config.DefaultPath
	ensureConfigFileFn = config.EnsureFile
	newConfigWatcherFn = config.NewWatcher
	newPipeServerFn    = func(name string, executor ipc.CommandExecutor) controlServer {
		return ipc.NewPipeServer(name, executor)
	}
)

const shutdownWaitTimeout = 5 * time.Second

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()
	a.setRuntimeContext(ctx)

	a.configPath = configPathFn()
	cfg, err := ensureConfigFileFn(a.configPath)
	if err != nil {
		// A broken config never blocks startup.
		slog.Warn("[config] failed to load config, running with defaults", "path", a.configPath, "error", err)
		cfg = config.DefaultConfig()
	}
	a.setConfigSnapshot(cfg)
	a.logLevel.Set(cfg.SlogLevel())

	workerCtx := a.startWorkers(ctx)
	a.startControlServer()
	a.configureHotkey(cfg)
	a.startConfigWatcher(workerCtx, cfg)
}

// startWorkers runs the session controller under panic recovery and returns
// the context that bounds background workers.
func (a *App) startWorkers(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	a.workerCancel = cancel
	a.runWorker(ctx, "session-controller", a.controller.Run)
	return ctx
}

func (a *App) runWorker(ctx context.Context, name string, fn func(context.Context)) {
	workerutil.RunWithPanicRecovery(ctx, name, &a.bgWG, fn, workerutil.RecoveryOptions{
		IsShutdown: a.shuttingDown.Load,
		OnFatal: func(worker string, maxRetries int) {
			slog.Error("[worker] worker stopped permanently", "worker", worker, "maxRetries", maxRetries)
		},
	})
}

func (a *App) startControlServer() {
	a.pipeServer = newPipeServerFn(ipc.DefaultPipeName(), a.controlRouter())
	if err := a.pipeServer.Start(); err != nil {
		// The hotkey still works without the control pipe.
		slog.Error("[ipc] control pipe failed to start", "pipe", a.pipeServer.PipeName(), "error", err)
		return
	}
	slog.Info("[ipc] control pipe listening", "pipe", a.pipeServer.PipeName())
}

func (a *App) startConfigWatcher(ctx context.Context, cfg config.Config) {
	w, err := newConfigWatcherFn(a.configPath, cfg, a.applyConfig)
	if err != nil {
		slog.Warn("[config] live reload unavailable", "path", a.configPath, "error", err)
		return
	}
	a.watcher = w
	a.runWorker(ctx, "config-watch", w.Run)
}

func (a *App) configureHotkey(cfg config.Config) {
	a.hotkeyMu.Lock()
	defer a.hotkeyMu.Unlock()
	a.configureHotkeyLocked(cfg)
}

func (a *App) configureHotkeyLocked(cfg config.Config) {
	if a.shuttingDown.Load() {
		return
	}
	if !cfg.HotkeyOn() {
		if err := a.hotkeys.Stop(); err != nil {
			slog.Warn("[hotkey] unregister failed", "error", err)
		}
		slog.Info("[hotkey] global hotkey disabled by config")
		return
	}
	if err := a.hotkeys.Start(cfg.GlobalHotkey, a.onHotkey); err != nil {
		// No retry; winseekctl open still reaches the controller.
		slog.Error("[hotkey] registration failed", "binding", cfg.GlobalHotkey, "error", err)
		return
	}
	slog.Info("[hotkey] global hotkey registered", "binding", a.hotkeys.ActiveBinding())
}

// onHotkey runs on the hotkey listener thread.
func (a *App) onHotkey() {
	if !a.controller.Signal() {
		slog.Debug("[hotkey] press dropped, controller stopped")
	}
}

// applyConfig takes a reloaded config into use. Excluded classes apply from
// the next session; hotkey changes re-register immediately.
func (a *App) applyConfig(cfg config.Config) {
	a.hotkeyMu.Lock()
	defer a.hotkeyMu.Unlock()

	prev := a.getConfigSnapshot()
	a.setConfigSnapshot(cfg)

	if level := cfg.SlogLevel(); level != a.logLevel.Level() {
		a.logLevel.Set(level)
		slog.Info("[config] log level changed", "level", level)
	}
	if prev.GlobalHotkey != cfg.GlobalHotkey || prev.HotkeyOn() != cfg.HotkeyOn() {
		a.configureHotkeyLocked(cfg)
	}
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("[config] watcher close failed", "error", err)
		}
	}

	// Release a listener blocked in Signal before asking it to quit.
	a.controller.Stop()

	a.hotkeyMu.Lock()
	if err := a.hotkeys.Stop(); err != nil {
		slog.Warn("[hotkey] stop failed", "error", err)
	}
	a.hotkeyMu.Unlock()

	if a.pipeServer != nil {
		if err := a.pipeServer.Stop(); err != nil {
			slog.Warn("[ipc] control pipe stop failed", "error", err)
		}
	}

	if a.workerCancel != nil {
		a.workerCancel()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		slog.Warn("[worker] timed out waiting for background workers during shutdown")
	}
	a.setRuntimeContext(nil)
}

// waitWithTimeout reports whether waitFn returned within timeout. The waiting
// goroutine may outlive the timeout.
func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
