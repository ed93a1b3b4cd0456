package alert

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

// ErrQueueFull is returned when an Async dispatcher drops an event.
var ErrQueueFull = errors.New("alert queue full")

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("alert dispatcher closed")

// Async hands events to another dispatcher on a background goroutine so slow
// deliveries (plugins, sound) never stall frame processing.
type Async struct {
	next   rubbing.AlertDispatcher
	queue  chan rubbing.AlertEvent
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAsync starts a worker delivering to next with room for size queued events.
func NewAsync(next rubbing.AlertDispatcher, size int, logger *zap.Logger) *Async {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Async{
		next:   next,
		queue:  make(chan rubbing.AlertEvent, size),
		logger: logger.Named("async"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		if err := a.next.Dispatch(a.ctx, ev); err != nil {
			a.logger.Debug("queued alert delivery failed", zap.String("alert_id", ev.ID), zap.Error(err))
		}
	}
}

// Dispatch queues ev without blocking.
func (a *Async) Dispatch(_ context.Context, ev rubbing.AlertEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		a.logger.Warn("dropping alert, delivery queue full", zap.String("alert_id", ev.ID))
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end, in which case in-flight deliveries are cancelled.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		a.cancel()
		return nil
	case <-ctx.Done():
		a.cancel()
		<-a.done
		return ctx.Err()
	}
}
