// Package notify implements the transient user-facing message queue: each
// message lives for a fixed TTL on its own timer, independent of the rest.
package notify

import (
	"sync"
	"time"

	"sniperdash/internal/clock"
	"sniperdash/internal/events"
	"sniperdash/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	KindSuccess = "success"
	KindError   = "error"
)

// Notification is one transient message.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives a copy of every notification, e.g. a Telegram chat.
type Sink interface {
	Notify(kind, text string) error
}

// Queue is the append-only notification queue. No deduplication and no
// length cap; entries remove themselves when their TTL elapses.
type Queue struct {
	scheduler clock.Scheduler
	ttl       time.Duration
	bus       *events.EventBus
	sink      Sink
	logger    *zerolog.Logger

	mu      sync.Mutex
	entries []Notification
}

// NewQueue constructs a queue. bus and sink may be nil.
func NewQueue(scheduler clock.Scheduler, ttl time.Duration, bus *events.EventBus, logger *zerolog.Logger) *Queue {
	return &Queue{
		scheduler: scheduler,
		ttl:       ttl,
		bus:       bus,
		logger:    logger,
	}
}

// SetSink attaches a forwarding sink for all notifications.
func (q *Queue) SetSink(sink Sink) {
	q.sink = sink
}

// Success appends a success message.
func (q *Queue) Success(text string) Notification {
	return q.push(KindSuccess, text)
}

// Error appends an error message.
func (q *Queue) Error(text string) Notification {
	return q.push(KindError, text)
}

func (q *Queue) push(kind, text string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		CreatedAt: q.scheduler.Now(),
	}

	q.mu.Lock()
	q.entries = append(q.entries, n)
	q.mu.Unlock()

	metrics.IncNotification(kind)
	q.scheduler.AfterFunc(q.ttl, func() { q.expire(n.ID) })

	if q.bus != nil {
		if err := q.bus.PublishJSON(events.EventNotification, n); err != nil {
			q.logger.Error().Err(err).Msg("notify: publish event")
		}
	}
	if q.sink != nil {
		go q.forward(n)
	}

	return n
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *Queue) forward(n Notification) {
	if err := q.sink.Notify(n.Kind, n.Text); err != nil {
		q.logger.Error().Err(err).Str("kind", n.Kind).Msg("notify: sink forward failed")
	}
}

// Active returns a snapshot of the messages still alive.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}
