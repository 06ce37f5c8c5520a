package main

import (
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"winseek/internal/ranking"
	"winseek/internal/session"
)

const (
	eventSessionOpened = "session:opened"
	eventSessionClosed = "session:closed"
)

var (
	runtimeEventsEmitFn           = runtime.EventsEmit
	runtimeWindowShowFn           = runtime.WindowShow
	runtimeWindowHideFn           = runtime.WindowHide
	runtimeWindowCenterFn         = runtime.WindowCenter
	runtimeWindowSetAlwaysOnTopFn = runtime.WindowSetAlwaysOnTop
	runtimeQuitFn                 = runtime.Quit
)

// sessionOpenedEvent is the payload of session:opened.
type sessionOpenedEvent struct {
	SessionID string       `json:"sessionId"`
	Windows   []WindowView `json:"windows"`
}

// wailsPresenter shows the switcher window. It runs on the controller
// goroutine and only talks to the Wails runtime.
type wailsPresenter struct {
	app *App
}

func (p wailsPresenter) Show(s session.Session) {
	a := p.app
	a.resetIconCache(s.ID)

	ctx := a.runtimeContext()
	if ctx == nil || a.shuttingDown.Load() {
		slog.Debug("[session] show skipped, runtime not ready", "session", s.ID)
		return
	}

	views := a.toViews(ranking.RankDetailed("", s.Inventory))
	runtimeEventsEmitFn(ctx, eventSessionOpened, sessionOpenedEvent{
		SessionID: s.ID.String(),
		Windows:   views,
	})
	runtimeWindowCenterFn(ctx)
	runtimeWindowShowFn(ctx)
	runtimeWindowSetAlwaysOnTopFn(ctx, true)
}

func (p wailsPresenter) Hide() {
	a := p.app
	ctx := a.runtimeContext()
	if ctx == nil || a.shuttingDown.Load() {
		return
	}
	runtimeWindowHideFn(ctx)
	runtimeEventsEmitFn(ctx, eventSessionClosed)
}
