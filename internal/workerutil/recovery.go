package workerutil

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxRetries     = 10
	// A worker that stays up this long before panicking starts over with a
	// fresh retry budget.
	defaultStableAfter = time.Minute
)

// RecoveryOptions tunes RunWithPanicRecovery. Zero or negative numeric
// fields take the defaults; nil callbacks are skipped.
type RecoveryOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxRetries counts consecutive panics before the worker is abandoned.
	// 1 means run once with no restart.
	MaxRetries int
	// StableAfter resets the retry budget and backoff once a run has
	// lasted at least this long.
	StableAfter time.Duration

	// OnPanic runs after each recovered panic. attempt is 1-based.
	OnPanic func(worker string, attempt int, recovered any)
	// OnFatal runs once the retry budget is spent.
	OnFatal func(worker string, maxRetries int)
	// IsShutdown stops restarts while the process is tearing down.
	IsShutdown func() bool
}

func (opts RecoveryOptions) applyDefaults() RecoveryOptions {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.StableAfter <= 0 {
		opts.StableAfter = defaultStableAfter
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[worker] MaxBackoff below InitialBackoff, raising it",
			"initialBackoff", opts.InitialBackoff,
			"maxBackoff", opts.MaxBackoff,
		)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

var nowFn = time.Now

// RunWithPanicRecovery starts fn on a goroutine tracked by wg and restarts
// it with exponential backoff when it panics. A normal return or a
// cancelled ctx ends the worker.
func RunWithPanicRecovery(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	opts = opts.applyDefaults()
	wg.Go(func() {
		runRecoveryLoop(ctx, name, fn, opts)
	})
}

func runRecoveryLoop(
	ctx context.Context,
	name string,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	delay := opts.InitialBackoff
	failures := 0

	for {
		started := nowFn()
		recovered, stack, panicked := runOnce(ctx, fn)
		if !panicked {
			return
		}

		slog.Error("[worker] recovered from panic",
			"worker", name,
			"panic", recovered,
			"stack", string(stack),
		)
		if ctx.Err() != nil {
			return
		}

		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[worker] shutdown in progress, not restarting", "worker", name)
			return
		}

		if nowFn().Sub(started) >= opts.StableAfter {
			failures = 0
			delay = opts.InitialBackoff
		}
		failures++

		if opts.OnPanic != nil {
			opts.OnPanic(name, failures, recovered)
		}

		if failures >= opts.MaxRetries {
			slog.Error("[worker] retry budget exhausted, giving up",
				"worker", name,
				"maxRetries", opts.MaxRetries,
			)
			if opts.OnFatal != nil {
				opts.OnFatal(name, opts.MaxRetries)
			}
			return
		}

		slog.Warn("[worker] restarting after panic",
			"worker", name,
			"delay", delay,
			"attempt", failures,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = nextBackoff(delay, opts.MaxBackoff)
	}
}

func runOnce(ctx context.Context, fn func(ctx context.Context)) (recovered any, stack []byte, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
			stack = debug.Stack()
			panicked = true
		}
	}()
	fn(ctx)
	return nil, nil, false
}

// nextBackoff doubles current up to maxBackoff, guarding against overflow.
func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	if current >= maxBackoff {
		return maxBackoff
	}
	next := current * 2
	if next > maxBackoff || next < current {
		return maxBackoff
	}
	return next
}
