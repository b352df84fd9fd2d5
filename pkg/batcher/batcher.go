// Package batcher groups a stream of items into bounded batches.
package batcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// ErrClosed is returned by Add once the batcher stopped accepting items.
var ErrClosed = errors.New("batcher closed")

// Batcher buffers items and flushes them either by size or interval.
// Add must not race with Close.
type Batcher[T any] struct {
	flushCallback func(context.Context, []T) error
	itemsCh       chan T
	flushSize     int
	flushInterval time.Duration
	rl            ratelimit.Limiter
	logger        *zap.Logger

	wg        sync.WaitGroup
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	firstErr error
}

// New constructs a Batcher. A non-positive rps disables rate limiting and a
// non-positive flushInterval disables time based flushes.
func New[T any](logger *zap.Logger, flushCallback func(context.Context, []T) error, flushSize int, flushInterval time.Duration, rps int) *Batcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if flushSize < 1 {
		flushSize = 1
	}
	rl := ratelimit.NewUnlimited()
	if rps > 0 {
		rl = ratelimit.New(rps)
	}
	return &Batcher[T]{
		logger:        logger,
		flushCallback: flushCallback,
		itemsCh:       make(chan T, flushSize*2),
		flushSize:     flushSize,
		flushInterval: flushInterval,
		rl:            rl,
		closed:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the background flushing loop.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.run(ctx)
}

// Close stops accepting items, flushes what is buffered and returns the
// first flush error.
func (b *Batcher[T]) Close() error {
	b.closeOnce.Do(func() {
		close(b.closed)
		close(b.itemsCh)
	})
	b.wg.Wait()
	return b.Err()
}

// Err returns the first flush error seen so far.
func (b *Batcher[T]) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firstErr
}

// Add queues an item for batching, respecting context cancellation.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	select {
	case <-b.closed:
		return ErrClosed
	case <-b.done:
		return ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	case b.itemsCh <- item:
		return nil
	}
}

func (b *Batcher[T]) run(ctx context.Context) {
	defer b.wg.Done()
	defer close(b.done)

	var tick <-chan time.Time
	if b.flushInterval > 0 {
		ticker := time.NewTicker(b.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	buf := make([]T, 0, b.flushSize)

	flush := func() {
		if len(buf) == 0 {
			return
		}

		b.rl.Take()
		if err := b.flushCallback(ctx, buf); err != nil {
			b.logger.Error("batch not flushed", zap.Int("size", len(buf)), zap.Error(err))
			b.mu.Lock()
			if b.firstErr == nil {
				b.firstErr = err
			}
			b.mu.Unlock()
		} else {
			b.logger.Debug("batch flushed", zap.Int("size", len(buf)))
		}
		buf = make([]T, 0, b.flushSize)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case item, ok := <-b.itemsCh:
			if !ok {
				flush()
				return
			}
			buf = append(buf, item)
			if len(buf) >= b.flushSize {
				flush()
			}

		case <-tick:
			flush()
		}
	}
}
