// Package poller keeps the three dashboard views fresh on a fixed cadence.
// Each resource refreshes independently: one failing fetch never delays or
// cancels the others, and never stops future ticks.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sniperdash/internal/events"
	"sniperdash/internal/metrics"
	"sniperdash/internal/models"

	"github.com/rs/zerolog"
)

// Backend is the read surface the poller needs from the API client.
type Backend interface {
	ListReservations(ctx context.Context, status string) ([]models.Reservation, error)
	Activity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error)
	Status(ctx context.Context) (*models.SystemStatus, error)
}

// FilterSource yields the status filter the list refresh should use.
type FilterSource interface {
	Filter() string
}

// Poller runs the background refresh loop.
type Poller struct {
	backend       Backend
	filter        FilterSource
	bus           *events.EventBus
	logger        *zerolog.Logger
	interval      time.Duration
	activityLimit int

	// Per-resource in-flight guards: a tick skips a resource whose
	// previous fetch has not come back yet, so slow round-trips cannot
	// pile up overlapping requests for the same resource.
	reservationsBusy atomic.Bool
	activityBusy     atomic.Bool
	statusBusy       atomic.Bool

	wg sync.WaitGroup
}

// New constructs a poller.
func New(backend Backend, filter FilterSource, bus *events.EventBus, interval time.Duration, activityLimit int, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if activityLimit <= 0 {
		activityLimit = models.DefaultActivityLimit
	}
	return &Poller{
		backend:       backend,
		filter:        filter,
		bus:           bus,
		logger:        logger,
		interval:      interval,
		activityLimit: activityLimit,
	}
}

// Run executes one immediate refresh cycle, then ticks until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	// kick immediately
	p.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return ctx.Err()
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick launches the three refreshes. It does not wait for them; ordering
// between the resources within a tick is deliberately unspecified.
func (p *Poller) Tick(ctx context.Context) {
	metrics.IncPollTick()
	p.spawn(ctx, &p.reservationsBusy, p.refreshReservations)
	p.spawn(ctx, &p.activityBusy, p.refreshActivity)
	p.spawn(ctx, &p.statusBusy, p.refreshStatus)
}

// RefreshReservations re-fetches the list immediately, outside the tick
// cadence. Used when the filter changes and after mutating actions.
func (p *Poller) RefreshReservations(ctx context.Context) {
	p.spawn(ctx, &p.reservationsBusy, p.refreshReservations)
}

// RefreshAll forces an immediate full cycle, e.g. after a submit.
func (p *Poller) RefreshAll(ctx context.Context) {
	p.spawn(ctx, &p.reservationsBusy, p.refreshReservations)
	p.spawn(ctx, &p.activityBusy, p.refreshActivity)
	p.spawn(ctx, &p.statusBusy, p.refreshStatus)
}

// Wait blocks until in-flight refreshes complete. Test hook.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) spawn(ctx context.Context, busy *atomic.Bool, refresh func(context.Context)) {
	if !busy.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer busy.Store(false)
		refresh(ctx)
	}()
}

func (p *Poller) refreshReservations(ctx context.Context) {
	status := ""
	if p.filter != nil {
		status = p.filter.Filter()
	}

	list, err := p.backend.ListReservations(ctx, status)
	if err != nil {
		// Transient backend unavailability during idle polling is
		// expected; log and wait for the next tick.
		p.logger.Error().Err(err).Str("filter", status).Msg("poll: reservations refresh failed")
		return
	}

	p.publish(events.EventReservationsUpdated, events.ReservationsPayload{Filter: status, Reservations: list})
}

func (p *Poller) refreshActivity(ctx context.Context) {
	entries, err := p.backend.Activity(ctx, p.activityLimit)
	if err != nil {
		p.logger.Error().Err(err).Msg("poll: activity refresh failed")
		return
	}

	p.publish(events.EventActivityUpdated, events.ActivityPayload{Entries: entries})
}

func (p *Poller) refreshStatus(ctx context.Context) {
	status, err := p.backend.Status(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("poll: status refresh failed")
		return
	}

	p.publish(events.EventStatusUpdated, events.StatusPayload{Status: *status})
}

func (p *Poller) publish(eventType string, payload interface{}) {
	if p.bus == nil {
		return
	}
	if err := p.bus.PublishJSON(eventType, payload); err != nil {
		p.logger.Error().Err(err).Str("event", eventType).Msg("poll: publish")
	}
}
