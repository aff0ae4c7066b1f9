package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rhuss/zotgate/pkg/api"
	"github.com/rhuss/zotgate/pkg/debug"
	"github.com/rhuss/zotgate/pkg/observability"
)

// ErrInitFailed is wrapped by errors returned from Ensure when the
// initializer fails.
var ErrInitFailed = errors.New("engine initialization failed")

// Initializer prepares the translation engine. Init is called at most once
// concurrently and is retried after a failure.
type Initializer interface {
	Init(ctx context.Context) error
}

// InitializerFunc is an adapter that allows using an ordinary function as
// an Initializer.
type InitializerFunc func(ctx context.Context) error

// Init calls f(ctx).
func (f InitializerFunc) Init(ctx context.Context) error {
	return f(ctx)
}

// Lazy runs an Initializer once, on first use.
type Lazy struct {
	init Initializer

	mu       sync.Mutex
	ready    atomic.Bool
	attempts atomic.Int64
}

// NewLazy wraps init. A nil init is ready immediately.
func NewLazy(init Initializer) *Lazy {
	l := &Lazy{init: init}
	if init == nil {
		l.ready.Store(true)
	}
	return l
}

// Ensure initializes the engine if that has not happened yet. Concurrent
// callers wait for the in-flight attempt; if it fails they try again in
// turn. The returned error is a 500 status-tagged error wrapping
// ErrInitFailed.
func (l *Lazy) Ensure(ctx context.Context) error {
	if l.ready.Load() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready.Load() {
		return nil
	}

	attempt := l.attempts.Add(1)
	start := time.Now()
	debug.Log("engine", "initializing", "attempt", attempt)

	if err := l.run(ctx); err != nil {
		observability.EngineInitTotal.WithLabelValues("failure").Inc()
		slog.Error("engine initialization failed",
			"attempt", attempt,
			"duration", time.Since(start),
			"error", err,
		)
		return &api.Error{
			Status:  http.StatusInternalServerError,
			Message: ErrInitFailed.Error(),
			Err:     fmt.Errorf("%w: %w", ErrInitFailed, err),
		}
	}

	l.ready.Store(true)
	observability.EngineInitTotal.WithLabelValues("success").Inc()
	slog.Info("engine initialized", "attempt", attempt, "duration", time.Since(start))
	return nil
}

// Warm initializes the engine eagerly. It is Ensure under another name,
// for use at startup.
func (l *Lazy) Warm(ctx context.Context) error {
	return l.Ensure(ctx)
}

// Ready reports whether initialization has succeeded.
func (l *Lazy) Ready() bool {
	return l.ready.Load()
}

// Attempts returns the number of initialization attempts made so far.
func (l *Lazy) Attempts() int64 {
	return l.attempts.Load()
}

// run calls the initializer, converting a panic into an error.
func (l *Lazy) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initializer panic: %v", r)
		}
	}()
	return l.init.Init(ctx)
}
