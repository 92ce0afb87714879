// Package jsvm runs learner snippets in-process on the goja JavaScript engine.
//
// Every execution gets its own freshly built runtime with its own console
// recorder, so concurrent executions cannot see each other's output and no
// state survives from one run to the next. Runtimes are built ahead of time
// by a small warm pool and discarded after a single use.
//
// The budget is enforced by interrupting the runtime, which preempts a
// runaway loop instead of merely abandoning it.
package jsvm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/executor/pool"
	"github.com/sakif/codecoach/internal/executor/sanitize"
)

// Executor implements the executor.Executor interface using goja.
type Executor struct {
	config    Config
	logger    *slog.Logger
	sanitizer sanitize.Sanitizer
	globals   map[string]any
	pool      *pool.Pool[*sandbox]
	slots     *semaphore.Weighted
}

var _ executor.Executor = (*Executor)(nil)

// Option customizes an Executor.
type Option func(*Executor)

// WithSanitizer replaces the default denylist policy.
func WithSanitizer(s sanitize.Sanitizer) Option {
	return func(e *Executor) {
		e.sanitizer = s
	}
}

// WithGlobal installs a host binding into every runtime, after the host
// globals have been removed.
func WithGlobal(name string, value any) Option {
	return func(e *Executor) {
		e.globals[name] = value
	}
}

// New creates an Executor and starts its runtime pool.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Executor {
	cfg = cfg.withDefaults()

	e := &Executor{
		config:    cfg,
		logger:    logger,
		sanitizer: sanitize.Default(),
		globals:   make(map[string]any),
		slots:     semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.pool = pool.New("jsvm", cfg.PoolSize, e.buildSandbox, nil, logger)
	e.pool.Start()

	return e
}

func (e *Executor) buildSandbox(context.Context) (*sandbox, error) {
	return newSandbox(e.config, e.logger, e.globals)
}

// Close stops the runtime pool.
func (e *Executor) Close() error {
	e.pool.Stop()
	return nil
}

// Execute sanitizes and runs one snippet within the configured budget.
//
// Syntax errors, thrown exceptions, timeouts and cancellation are reported in
// the result; the returned error is non-nil only when the executor has been
// closed.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
	}
	defer e.slots.Release(1)

	source := e.sanitizer.Sanitize(req.Code)

	sb, err := e.pool.Get(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
		}
		return nil, fmt.Errorf("jsvm: acquiring runtime: %w", err)
	}

	done := make(chan outcome, 1)
	go func() {
		done <- sb.run(source)
	}()

	timer := time.NewTimer(e.config.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		printed := sb.out.release()
		if out.err != nil {
			kind, msg := sb.classify(out.err)
			return executor.Failure(kind, msg, start), nil
		}
		if out.returned && printed == "" {
			printed = out.value
		}
		return executor.Success(strings.TrimSpace(printed), start), nil

	case <-timer.C:
		sb.stop(executor.TimeoutMessage)
		sb.out.release()
		e.logger.Warn("snippet exceeded its budget",
			slog.Duration("timeout", e.config.Timeout),
		)
		return executor.Failure(executor.FailureTimeout, executor.TimeoutMessage, start), nil

	case <-ctx.Done():
		sb.stop(executor.CancelledMessage)
		sb.out.release()
		return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
	}
}
