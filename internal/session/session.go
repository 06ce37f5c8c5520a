// Package session owns the Idle/SessionActive lifecycle of the switcher.
//
// One goroutine (Controller.Run) owns the state and the open session's
// inventory. Hotkey signals and presentation requests reach it through a single
// buffered channel, so they are handled strictly in arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"winseek/internal/inventory"
	"winseek/internal/ranking"
	"winseek/internal/winsys"
)

// DefaultQueueSize is the capacity of the controller's event queue.
const DefaultQueueSize = 16

var (
	// ErrStaleSession means the request names a session that is not open.
	ErrStaleSession = errors.New("session is not open")
	// ErrNoMatch means there is no record to activate.
	ErrNoMatch = errors.New("no matching window")
	// ErrStopped means the controller was shut down.
	ErrStopped = errors.New("session controller stopped")
)

// State is the controller state.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one open switcher invocation. Its inventory is a snapshot taken
// when the session opened.
type Session struct {
	ID        uuid.UUID
	Inventory []inventory.Record
	OpenedAt  time.Time
}

// Presenter displays and hides the switcher UI. Both methods are called on
// the controller goroutine and must not call back into the controller.
type Presenter interface {
	Show(s Session)
	Hide()
}

// Status is a point-in-time view of the controller.
type Status struct {
	State     State
	SessionID uuid.UUID
	Records   int
	Opened    int
}

// Options configures a Controller.
type Options struct {
	// Enumerate snapshots the inventory. Required.
	Enumerate func() []inventory.Record
	// Activate focuses a window. Required.
	Activate func(h winsys.Handle) error
	// Presenter receives show/hide calls. May be nil.
	Presenter Presenter
	// QueueSize defaults to DefaultQueueSize.
	QueueSize int
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.New.
	NewID func() uuid.UUID
}

type op int

const (
	opSignal op = iota
	opQuery
	opActivate
	opActivateTop
	opClose
	opStatus
)

type event struct {
	op     op
	id     uuid.UUID
	query  string
	handle winsys.Handle
	reply  chan result
}

type result struct {
	ranked []ranking.Ranked
	status Status
	err    error
}

// Controller serializes hotkey signals and presentation requests.
type Controller struct {
	enumerate func() []inventory.Record
	activate  func(h winsys.Handle) error
	presenter Presenter
	now       func() time.Time
	newID     func() uuid.UUID

	events   chan event
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the Run goroutine.
	state   State
	current *Session
	opened  int

	running atomic.Bool
}

// NewController validates opts and returns an idle controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Enumerate == nil {
		return nil, errors.New("session: Enumerate is required")
	}
	if opts.Activate == nil {
		return nil, errors.New("session: Activate is required")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	return &Controller{
		enumerate: opts.Enumerate,
		activate:  opts.Activate,
		presenter: opts.Presenter,
		now:       opts.Now,
		newID:     opts.NewID,
		events:    make(chan event, opts.QueueSize),
		done:      make(chan struct{}),
	}, nil
}

// Signal enqueues a hotkey signal. It blocks while the queue is full and
// returns false only after Stop.
func (c *Controller) Signal() bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- event{op: opSignal}:
		return true
	case <-c.done:
		return false
	}
}

// Stop releases blocked senders. Run must be stopped through its context.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Run processes events until ctx is cancelled. A fresh Run starts Idle, which
// is what a restart after a panic relies on.
func (c *Controller) Run(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		slog.Warn("[session] Run called while already running")
		return
	}
	defer c.running.Store(false)

	c.reset()
	slog.Debug("[session] controller started")
	for {
		select {
		case <-ctx.Done():
			c.reset()
			slog.Debug("[session] controller stopped")
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) reset() {
	if c.state == StateActive && c.presenter != nil {
		c.presenter.Hide()
	}
	c.state = StateIdle
	c.current = nil
}

func (c *Controller) handle(ev event) {
	var res result
	switch ev.op {
	case opSignal:
		c.open()
		return
	case opQuery:
		res.ranked, res.err = c.query(ev.id, ev.query)
	case opActivate:
		res.err = c.activateHandle(ev.id, ev.handle)
	case opActivateTop:
		res.err = c.activateTop(ev.id, ev.query)
	case opClose:
		res.err = c.close(ev.id)
	case opStatus:
		res.status = c.status()
	}
	if ev.reply != nil {
		ev.reply <- res
	}
}

func (c *Controller) open() {
	if c.state == StateActive {
		slog.Debug("[session] signal ignored, session already open", "session", c.current.ID)
		return
	}

	started := c.now()
	records := c.enumerate()
	s := Session{ID: c.newID(), Inventory: records, OpenedAt: started}
	c.current = &s
	c.state = StateActive
	c.opened++

	slog.Info("[session] opened", "session", s.ID, "records", len(records), "elapsed", c.now().Sub(started))
	if c.presenter != nil {
		c.presenter.Show(s)
	}
}

func (c *Controller) check(id uuid.UUID) error {
	if c.state != StateActive || c.current == nil || c.current.ID != id {
		return fmt.Errorf("%w: %s", ErrStaleSession, id)
	}
	return nil
}

func (c *Controller) query(id uuid.UUID, q string) ([]ranking.Ranked, error) {
	if err := c.check(id); err != nil {
		return nil, err
	}
	return ranking.RankDetailed(q, c.current.Inventory), nil
}

func (c *Controller) activateHandle(id uuid.UUID, h winsys.Handle) error {
	if err := c.check(id); err != nil {
		return err
	}
	found := false
	for _, r := range c.current.Inventory {
		if r.Handle == h {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: handle %#x is not in session %s", ErrNoMatch, uintptr(h), id)
	}
	return c.finish(h)
}

func (c *Controller) activateTop(id uuid.UUID, q string) error {
	if err := c.check(id); err != nil {
		return err
	}
	top, ok := ranking.Top(q, c.current.Inventory)
	if !ok {
		return ErrNoMatch
	}
	return c.finish(top.Handle)
}

// finish dispatches focus to h, then hides the switcher and returns to Idle
// whether or not focusing succeeded.
func (c *Controller) finish(h winsys.Handle) error {
	id := c.current.ID
	err := c.activate(h)
	c.reset()
	if err != nil {
		slog.Warn("[session] activation failed", "session", id, "hwnd", uintptr(h), "error", err)
		return err
	}
	slog.Info("[session] activated window", "session", id, "hwnd", uintptr(h))
	return nil
}

func (c *Controller) close(id uuid.UUID) error {
	if err := c.check(id); err != nil {
		return err
	}
	c.reset()
	slog.Info("[session] closed", "session", id)
	return nil
}

func (c *Controller) status() Status {
	st := Status{State: c.state, Opened: c.opened}
	if c.current != nil {
		st.SessionID = c.current.ID
		st.Records = len(c.current.Inventory)
	}
	return st
}

func (c *Controller) call(ctx context.Context, ev event) (result, error) {
	ev.reply = make(chan result, 1)
	select {
	case c.events <- ev:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-c.done:
		return result{}, ErrStopped
	}
	select {
	case res := <-ev.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-c.done:
		return result{}, ErrStopped
	}
}

// Query ranks the open session's inventory against q.
func (c *Controller) Query(ctx context.Context, id uuid.UUID, q string) ([]ranking.Ranked, error) {
	res, err := c.call(ctx, event{op: opQuery, id: id, query: q})
	if err != nil {
		return nil, err
	}
	return res.ranked, res.err
}

// Activate focuses h, which must belong to the open session, and ends it.
func (c *Controller) Activate(ctx context.Context, id uuid.UUID, h winsys.Handle) error {
	res, err := c.call(ctx, event{op: opActivate, id: id, handle: h})
	if err != nil {
		return err
	}
	return res.err
}

// ActivateTop focuses the best match for q and ends the session.
func (c *Controller) ActivateTop(ctx context.Context, id uuid.UUID, q string) error {
	res, err := c.call(ctx, event{op: opActivateTop, id: id, query: q})
	if err != nil {
		return err
	}
	return res.err
}

// Close ends the session without focusing anything.
func (c *Controller) Close(ctx context.Context, id uuid.UUID) error {
	res, err := c.call(ctx, event{op: opClose, id: id})
	if err != nil {
		return err
	}
	return res.err
}

// Status reports the controller state. It is answered after every event queued
// before it.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	res, err := c.call(ctx, event{op: opStatus})
	if err != nil {
		return Status{}, err
	}
	return res.status, nil
}
