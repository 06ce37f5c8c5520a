package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"winseek/internal/config"
	"winseek/internal/focus"
	"winseek/internal/hotkeys"
	"winseek/internal/icon"
	"winseek/internal/inventory"
	"winseek/internal/session"
	"winseek/internal/winsys"
)

// controlServer is the part of ipc.PipeServer the app drives.
type controlServer interface {
	PipeName() string
	Start() error
	Stop() error
}

// App is the Wails-bound switcher host. Exported methods are callable from
// the frontend.
type App struct {
	ctx   context.Context
	ctxMu sync.RWMutex

	sys        winsys.System
	icons      *icon.Extractor
	controller *session.Controller
	hotkeys    hotkeys.Listener
	pipeServer controlServer
	watcher    *config.Watcher

	// Lock ordering: hotkeyMu -> cfgMu.
	hotkeyMu   sync.Mutex
	cfgMu      sync.RWMutex
	cfg        config.Config
	configPath string
	logLevel   *slog.LevelVar

	iconMu      sync.Mutex
	iconSession uuid.UUID
	iconCache   map[winsys.Handle]string

	workerCancel context.CancelFunc
	bgWG         sync.WaitGroup
	shuttingDown atomic.Bool
}

// NewApp wires the switcher to sys. logLevel is adjusted when the config
// changes; it may be nil.
func NewApp(sys winsys.System, logLevel *slog.LevelVar) (*App, error) {
	if sys == nil {
		return nil, errors.New("window system is required")
	}
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}
	a := &App{
		sys:       sys,
		icons:     icon.NewExtractor(sys),
		hotkeys:   hotkeys.NewManager(),
		cfg:       config.DefaultConfig(),
		logLevel:  logLevel,
		iconCache: map[winsys.Handle]string{},
	}
	controller, err := session.NewController(session.Options{
		Enumerate: a.enumerate,
		Activate: func(h winsys.Handle) error {
			return focus.Activate(a.sys, h)
		},
		Presenter: wailsPresenter{app: a},
	})
	if err != nil {
		return nil, err
	}
	a.controller = controller
	return a, nil
}

func (a *App) enumerate() []inventory.Record {
	cfg := a.getConfigSnapshot()
	return inventory.EnumerateWithOptions(a.sys, a.icons, inventory.Options{
		ExcludedClasses: cfg.ExcludedClasses,
	})
}

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	return a.ctx
}

func (a *App) getConfigSnapshot() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return config.Clone(a.cfg)
}

func (a *App) setConfigSnapshot(cfg config.Config) {
	a.cfgMu.Lock()
	a.cfg = config.Clone(cfg)
	a.cfgMu.Unlock()
}
