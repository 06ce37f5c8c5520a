package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"winseek/internal/ipc"
	"winseek/internal/session"
)

// controlRouter answers winseekctl requests arriving on the control pipe.
func (a *App) controlRouter() ipc.Router {
	return ipc.Router{
		ipc.CommandOpen:   a.handleOpen,
		ipc.CommandExit:   a.handleExit,
		ipc.CommandStatus: a.handleStatus,
	}
}

func (a *App) handleOpen(ipc.Request) ipc.Response {
	if !a.controller.Signal() {
		return ipc.Failure("winseek is shutting down")
	}
	return ipc.Success("")
}

func (a *App) handleExit(ipc.Request) ipc.Response {
	ctx := a.runtimeContext()
	if ctx == nil {
		return ipc.Failure("winseek is not ready")
	}
	slog.Info("[ipc] exit requested")
	// Quit runs shutdown, which stops this pipe server; reply first.
	go runtimeQuitFn(ctx)
	return ipc.Success("")
}

func (a *App) handleStatus(ipc.Request) ipc.Response {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	st, err := a.controller.Status(ctx)
	if err != nil {
		return ipc.Failure("status unavailable: %v", err)
	}

	cfg := a.getConfigSnapshot()
	hotkey := "disabled"
	if cfg.HotkeyOn() {
		hotkey = cfg.GlobalHotkey + " (not registered)"
		if a.hotkeys.Listening() {
			hotkey = a.hotkeys.ActiveBinding() + " (listening)"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "hotkey: %s\n", hotkey)
	fmt.Fprintf(&b, "state: %s\n", st.State)
	if st.State == session.StateActive {
		fmt.Fprintf(&b, "session: %s (%d windows)\n", st.SessionID, st.Records)
	}
	fmt.Fprintf(&b, "sessions opened: %d\n", st.Opened)
	return ipc.Success(b.String())
}
