// Package events delivers domain events to observers. Delivery is
// fire-and-forget: a failing sink never fails the operation that emitted.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/datasov-backend/internal/models"
)

type Type string

const (
	RegistryInitialized    Type = "oracle_registry.initialized"
	OracleRegistered       Type = "oracle.registered"
	IdentityRegistered     Type = "identity.registered"
	IdentityVerified       Type = "identity.verified"
	IdentityUpdated        Type = "identity.updated"
	IdentityRevoked        Type = "identity.revoked"
	AccessGranted          Type = "access.granted"
	AccessRevoked          Type = "access.revoked"
	MarketplaceInitialized Type = "marketplace.initialized"
	ListingCreated         Type = "listing.created"
	ListingPriceUpdated    Type = "listing.price_updated"
	ListingCancelled       Type = "listing.cancelled"
	ListingPurchased       Type = "listing.purchased"
	FeesWithdrawn          Type = "marketplace.fees_withdrawn"
	AccountRegistered      Type = "account.registered"
	DepositCredited        Type = "account.deposit_credited"
	RequestAudited         Type = "http.request"
)

type Event struct {
	Type       Type                   `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Actor      string                 `json:"actor"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

type Sink interface {
	Emit(ctx context.Context, event Event)
}

// LogSink writes every event as a structured log line.
type LogSink struct {
	logger logrus.FieldLogger
}

func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event Event) {
	fields := logrus.Fields{
		"event":       string(event.Type),
		"actor":       event.Actor,
		"occurred_at": event.OccurredAt,
	}
	for k, v := range event.Data {
		fields[k] = v
	}
	s.logger.WithFields(fields).Info("Domain event")
}

// DBSink persists events to the event_logs table asynchronously.
type DBSink struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Emit(_ context.Context, event Event) {
	entry := &models.EventLog{
		EventType:  string(event.Type),
		Actor:      event.Actor,
		Data:       models.JSONB(event.Data),
		OccurredAt: event.OccurredAt,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Create(entry).Error; err != nil {
			logrus.WithError(err).WithField("event", entry.EventType).Error("Failed to persist event")
		}
	}()
}

// Wait blocks until every pending write has finished.
func (s *DBSink) Wait() {
	s.wg.Wait()
}

type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}

type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
