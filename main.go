package main

import (
	"embed"
	"errors"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"winseek/internal/config"
	"winseek/internal/ipc"
	"winseek/internal/singleinstance"
	"winseek/internal/winsys"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	os.Exit(run())
}

func run() int {
	level := new(slog.LevelVar)
	if cfg, err := config.Load(config.DefaultPath()); err == nil {
		level.Set(cfg.SlogLevel())
	}
	logFile := setupLogging(level)
	defer func() {
		if err := logFile.Close(); err != nil {
			slog.Warn("[session-log] close failed", "error", err)
		}
	}()

	// A second instance hands the press to the first and exits.
	lock, err := singleinstance.TryLock(singleinstance.DefaultMutexName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[ipc] winseek is already running, forwarding open")
		if _, sendErr := ipc.Send("", ipc.Request{Command: ipc.CommandOpen}); sendErr != nil {
			slog.Warn("[ipc] failed to signal running instance", "error", sendErr)
			return 1
		}
		return 0
	}
	if err != nil {
		slog.Warn("[ipc] single-instance mutex unavailable, continuing without it", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[ipc] mutex release failed", "error", releaseErr)
			}
		}()
	}

	sys, err := winsys.New()
	if err != nil {
		slog.Error("[inventory] window system unavailable", "error", err)
		return 1
	}
	app, err := NewApp(sys, level)
	if err != nil {
		slog.Error("[session] app setup failed", "error", err)
		return 1
	}

	err = wails.Run(&options.App{
		Title:             "winseek",
		Width:             640,
		Height:            440,
		DisableResize:     true,
		Frameless:         true,
		AlwaysOnTop:       true,
		StartHidden:       true,
		HideWindowOnClose: true,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 24, G: 26, B: 31, A: 240},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []any{
			app,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			DisableWindowIcon:    true,
		},
	})
	if err != nil {
		slog.Error("[session] wails run failed", "error", err)
		return 1
	}
	return 0
}
