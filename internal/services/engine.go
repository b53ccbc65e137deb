// internal/services/engine.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/metrics"
	"github.com/javajoker/datasov-backend/internal/repository"
)

// Engine carries the collaborators every ledger service shares.
type Engine struct {
	store   repository.Store
	clock   Clock
	sink    events.Sink
	metrics *metrics.Metrics
}

func NewEngine(store repository.Store, clock Clock, sink events.Sink, m *metrics.Metrics) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Engine{
		store:   store,
		clock:   clock,
		sink:    sink,
		metrics: m,
	}
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func (e *Engine) atomic(ctx context.Context, operation string, fn func(repository.Ledger) error) error {
	return e.atomicAt(ctx, operation, e.now(), fn)
}

// atomicAt runs fn as one unit of work whose writes are stamped with now.
func (e *Engine) atomicAt(ctx context.Context, operation string, now time.Time, fn func(repository.Ledger) error) error {
	err := e.store.Atomic(repository.WithNow(ctx, now), fn)
	e.metrics.ObserveOperation(operation, err)
	if err != nil {
		logrus.WithError(err).WithField("operation", operation).Debug("Ledger operation rejected")
	}
	return err
}

func (e *Engine) view(ctx context.Context, fn func(repository.Ledger) error) error {
	return e.store.View(ctx, fn)
}

func (e *Engine) emit(ctx context.Context, eventType events.Type, actor string, at time.Time, data map[string]interface{}) {
	e.sink.Emit(ctx, events.Event{
		Type:       eventType,
		OccurredAt: at,
		Actor:      actor,
		Data:       data,
	})
}
