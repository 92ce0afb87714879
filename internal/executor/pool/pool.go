// Package pool keeps a small stock of pre-built, single-use execution
// environments so a request does not pay the construction cost inline.
//
// Items are never returned to the pool: an environment that has run a
// snippet is discarded by the caller, and the manager goroutine builds a
// fresh one to take its place.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by Get after Stop.
var ErrClosed = errors.New("pool: closed")

// BuildFunc creates one fresh item.
type BuildFunc[T any] func(ctx context.Context) (T, error)

// DiscardFunc releases an item that will never be handed out.
type DiscardFunc[T any] func(T)

// Pool manages pre-warmed items of type T.
type Pool[T any] struct {
	name    string
	build   BuildFunc[T]
	discard DiscardFunc[T]
	logger  *slog.Logger

	items     chan T
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	// backoff between failed builds
	backoff time.Duration
}

// New creates a pool that keeps up to size items ready. A size of zero
// disables pre-warming; Get then always builds inline.
func New[T any](name string, size int, build BuildFunc[T], discard DiscardFunc[T], logger *slog.Logger) *Pool[T] {
	if size < 0 {
		size = 0
	}
	if discard == nil {
		discard = func(T) {}
	}
	return &Pool[T]{
		name:    name,
		build:   build,
		discard: discard,
		logger:  logger,
		items:   make(chan T, size),
		done:    make(chan struct{}),
		backoff: time.Second,
	}
}

// Start begins filling the pool in the background.
func (p *Pool[T]) Start() {
	p.startOnce.Do(func() {
		if cap(p.items) == 0 {
			return
		}
		p.logger.Info("starting warm pool",
			slog.String("pool", p.name),
			slog.Int("size", cap(p.items)),
		)
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and discards every item still waiting.
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case item := <-p.items:
				p.discard(item)
			default:
				p.logger.Info("warm pool stopped", slog.String("pool", p.name))
				return
			}
		}
	})
}

// Get hands out a ready item, or builds one inline when none is waiting.
// The caller owns the item from then on.
func (p *Pool[T]) Get(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-p.done:
		return zero, ErrClosed
	default:
	}

	select {
	case item := <-p.items:
		return item, nil
	default:
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return p.build(ctx)
}

// Ready reports how many items are waiting.
func (p *Pool[T]) Ready() int {
	return len(p.items)
}

// manager keeps the pool at capacity. The send blocks while the pool is
// full, so there is no polling.
func (p *Pool[T]) manager() {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.done
		cancel()
	}()

	for {
		item, err := p.build(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("failed to build pool item",
				slog.String("pool", p.name),
				slog.String("error", err.Error()),
			)
			select {
			case <-time.After(p.backoff):
				continue
			case <-p.done:
				return
			}
		}

		select {
		case p.items <- item:
		case <-p.done:
			p.discard(item)
			return
		}
	}
}
