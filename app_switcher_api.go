package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"winseek/internal/ranking"
	"winseek/internal/winsys"
)

// requestTimeout bounds how long a frontend call waits for the controller.
const requestTimeout = 5 * time.Second

// WindowView is one row of the switcher list.
type WindowView struct {
	Handle  uint64 `json:"handle"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
	Matched []int  `json:"matched"`
	IconPNG string `json:"iconPng"`
}

func (a *App) toViews(ranked []ranking.Ranked) []WindowView {
	views := make([]WindowView, len(ranked))
	for i, r := range ranked {
		matched := r.MatchedIndexes
		if matched == nil {
			matched = []int{}
		}
		views[i] = WindowView{
			Handle:  uint64(r.Handle),
			Title:   r.Title,
			Score:   r.Score,
			Matched: matched,
			IconPNG: a.iconURL(r.Handle, r.Icon),
		}
	}
	return views
}

func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id %q: %w", raw, err)
	}
	return id, nil
}

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Query ranks the open session's windows against query.
func (a *App) Query(sessionID string, query string) ([]WindowView, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.requestContext()
	defer cancel()

	ranked, err := a.controller.Query(ctx, id, query)
	if err != nil {
		return nil, err
	}
	return a.toViews(ranked), nil
}

// Activate focuses the window with handle and closes the switcher.
func (a *App) Activate(sessionID string, handle uint64) error {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return err
	}
	ctx, cancel := a.requestContext()
	defer cancel()
	return a.controller.Activate(ctx, id, winsys.Handle(handle))
}

// ActivateTop focuses the best match for query and closes the switcher.
func (a *App) ActivateTop(sessionID string, query string) error {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return err
	}
	ctx, cancel := a.requestContext()
	defer cancel()
	return a.controller.ActivateTop(ctx, id, query)
}

// Close dismisses the switcher without focusing anything.
func (a *App) Close(sessionID string) error {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return err
	}
	ctx, cancel := a.requestContext()
	defer cancel()
	return a.controller.Close(ctx, id)
}
