// Package notify fans engine notifications out to in-process handlers and an
// optional external sink. Handlers run on a bounded worker pool so a slow or
// panicking subscriber cannot stall classification.
package notify

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

// Handler receives one notification. Panics are isolated per handler.
type Handler func(n types.Notification)

// Sink is an external delivery target (audit, alerting).
type Sink interface {
	Deliver(ctx context.Context, n types.Notification)
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[types.Kind][]Handler
	sinks    []Sink

	pool   pond.Pool
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger, workers int) *Registry {
	if workers <= 0 {
		workers = 8
	}
	return &Registry{
		handlers: make(map[types.Kind][]Handler),
		pool:     pond.NewPool(workers),
		logger:   logger,
	}
}

// Subscribe registers a handler for a notification kind. types.KindAny
// matches every kind.
func (r *Registry) Subscribe(kind types.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// AttachSink adds an external delivery target.
func (r *Registry) AttachSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Emit dispatches asynchronously to every matching handler and sink. It never
// blocks on or propagates handler failures.
func (r *Registry) Emit(n types.Notification) {
	r.mu.RLock()
	handlers := append(append([]Handler(nil), r.handlers[n.Kind]...), r.handlers[types.KindAny]...)
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.RUnlock()

	for _, h := range handlers {
		h := h
		r.pool.Submit(func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("notification handler panicked",
						zap.String("kind", string(n.Kind)),
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())))
				}
			}()
			h(n)
		})
	}
	for _, s := range sinks {
		s := s
		r.pool.Submit(func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("notification sink panicked",
						zap.String("kind", string(n.Kind)),
						zap.Any("panic", rec))
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.Deliver(ctx, n)
		})
	}
}

// Close waits for in-flight dispatches to finish.
func (r *Registry) Close() {
	r.pool.StopAndWait()
}
