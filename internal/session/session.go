// Package session holds the dashboard's mutable per-session state and the
// intents a presentation layer invokes: submit, retry, cancel, filter and
// the detail view lifecycle. All former page-level globals live here as
// fields so tests can construct fresh state.
package session

import (
	"context"
	"sync"

	"sniperdash/internal/events"
	"sniperdash/internal/models"
	"sniperdash/internal/notify"

	"github.com/rs/zerolog"
)

// API is the mutation/detail surface the session needs from the client.
type API interface {
	CreateReservation(ctx context.Context, draft models.ReservationDraft) (*models.Reservation, error)
	RetryReservation(ctx context.Context, id int64) error
	CancelReservation(ctx context.Context, id int64) error
	GetReservation(ctx context.Context, id int64) (*models.ReservationDetail, error)
}

// Refresher triggers immediate poll-loop refreshes after mutations.
type Refresher interface {
	RefreshReservations(ctx context.Context)
	RefreshAll(ctx context.Context)
}

// Notifier is the user-facing message queue.
type Notifier interface {
	Success(text string) notify.Notification
	Error(text string) notify.Notification
}

// Session is the controller object behind the dashboard.
type Session struct {
	api       API
	refresher Refresher
	notifier  Notifier
	bus       *events.EventBus
	logger    *zerolog.Logger

	mu        sync.Mutex
	filter    string
	modalOpen bool
	detail    *models.ReservationDetail
}

// New constructs a session with the empty ("all") filter and a closed
// detail view.
func New(api API, refresher Refresher, notifier Notifier, bus *events.EventBus, logger *zerolog.Logger) *Session {
	return &Session{
		api:       api,
		refresher: refresher,
		notifier:  notifier,
		bus:       bus,
		logger:    logger,
	}
}

// Filter returns the active status filter. Satisfies poller.FilterSource.
func (s *Session) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter switches the list filter and refreshes the list right away
// rather than waiting for the next poll tick.
func (s *Session) SetFilter(ctx context.Context, status string) {
	s.mu.Lock()
	s.filter = status
	s.mu.Unlock()

	s.refresher.RefreshReservations(ctx)
}

// Submit sends a new reservation request. On failure the caller's draft is
// untouched so the user can correct and resubmit.
func (s *Session) Submit(ctx context.Context, draft models.ReservationDraft) error {
	created, err := s.api.CreateReservation(ctx, draft)
	if err != nil {
		s.notifier.Error("Failed to submit: " + err.Error())
		return err
	}

	s.notifier.Success("Sniper armed for " + created.RestaurantName)
	s.refresher.RefreshAll(ctx)
	return nil
}

// Retry re-arms a reservation.
func (s *Session) Retry(ctx context.Context, id int64) error {
	if err := s.api.RetryReservation(ctx, id); err != nil {
		s.notifier.Error("Retry failed: " + err.Error())
		return err
	}

	s.notifier.Success("Retrying reservation")
	s.refresher.RefreshAll(ctx)
	return nil
}

// Cancel asks the backend to cancel a reservation.
func (s *Session) Cancel(ctx context.Context, id int64) error {
	if err := s.api.CancelReservation(ctx, id); err != nil {
		s.notifier.Error("Cancel failed: " + err.Error())
		return err
	}

	s.notifier.Success("Reservation cancelled")
	s.refresher.RefreshAll(ctx)
	return nil
}

// OpenDetail fetches one reservation's full detail and opens the view on
// success. The content is a point-in-time snapshot; no background refresh
// touches it while open.
func (s *Session) OpenDetail(ctx context.Context, id int64) error {
	detail, err := s.api.GetReservation(ctx, id)
	if err != nil {
		s.notifier.Error("Failed to load details: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.detail = detail
	s.modalOpen = true
	s.mu.Unlock()

	s.publish(events.EventDetailOpened, detail)
	return nil
}

// CloseDetail closes the detail view. Idempotent.
func (s *Session) CloseDetail() {
	s.mu.Lock()
	wasOpen := s.modalOpen
	s.modalOpen = false
	s.detail = nil
	s.mu.Unlock()

	if wasOpen {
		s.publish(events.EventDetailClosed, nil)
	}
}

// Detail returns the open snapshot, if any.
func (s *Session) Detail() (*models.ReservationDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail, s.modalOpen
}

func (s *Session) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("session: publish")
	}
}
