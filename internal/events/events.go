package events

import (
	"encoding/json"
	"sync"
	"time"

	"sniperdash/internal/models"
)

// Event types the dashboard core publishes for the presentation layer.
const (
	EventReservationsUpdated = "reservations_updated"
	EventActivityUpdated     = "activity_updated"
	EventStatusUpdated       = "status_updated"
	EventSearchResults       = "search_results"
	EventNotification        = "notification"
	EventDetailOpened        = "detail_opened"
	EventDetailClosed        = "detail_closed"
)

// ReservationsPayload carries a wholesale replacement of the list view.
type ReservationsPayload struct {
	Filter       string               `json:"filter"`
	Reservations []models.Reservation `json:"reservations"`
}

// ActivityPayload carries the newest-first activity feed slice.
type ActivityPayload struct {
	Entries []models.ActivityLogEntry `json:"entries"`
}

// StatusPayload carries a system counters snapshot.
type StatusPayload struct {
	Status models.SystemStatus `json:"status"`
}

// SearchPayload carries one autocomplete outcome. Failed tells the
// presentation layer to show the "search failed" placeholder.
type SearchPayload struct {
	Query  string         `json:"query"`
	Venues []models.Venue `json:"venues"`
	Failed bool           `json:"failed"`
}

// Event represents a lightweight in-process event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub between the core and presentation.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
