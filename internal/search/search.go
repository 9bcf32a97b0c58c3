// Package search implements the venue autocomplete controller: debounced
// keystrokes, race-safe result application, and selection commit.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"sniperdash/internal/clock"
	"sniperdash/internal/events"
	"sniperdash/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Backend is the one call the controller needs from the API client.
type Backend interface {
	SearchVenues(ctx context.Context, query string) ([]models.Venue, error)
}

// Panel is the visible state of the results dropdown.
type Panel int

const (
	PanelHidden Panel = iota
	PanelLoading
	PanelResults
	PanelEmpty
	PanelFailed
)

// Controller holds the autocomplete session state. All mutation goes through
// its methods; the debounce timer is the only source of async callbacks.
type Controller struct {
	backend   Backend
	scheduler clock.Scheduler
	limiter   *rate.Limiter
	bus       *events.EventBus
	logger    *zerolog.Logger
	debounce  time.Duration
	minQuery  int

	mu              sync.Mutex
	queryText       string
	selectedVenueID string
	suppressNext    bool
	pending         clock.Timer
	generation      uint64
	results         []models.Venue
	panel           Panel
}

// Config groups the controller knobs.
type Config struct {
	Debounce    time.Duration
	MinQueryLen int
	SearchRPS   float64
	SearchBurst int
}

// NewController constructs an idle controller. bus may be nil.
func NewController(backend Backend, scheduler clock.Scheduler, cfg Config, bus *events.EventBus, logger *zerolog.Logger) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 350 * time.Millisecond
	}
	if cfg.MinQueryLen <= 0 {
		cfg.MinQueryLen = 2
	}
	if cfg.SearchRPS <= 0 {
		cfg.SearchRPS = 2
	}
	if cfg.SearchBurst <= 0 {
		cfg.SearchBurst = 3
	}
	return &Controller{
		backend:   backend,
		scheduler: scheduler,
		limiter:   rate.NewLimiter(rate.Limit(cfg.SearchRPS), cfg.SearchBurst),
		bus:       bus,
		logger:    logger,
		debounce:  cfg.Debounce,
		minQuery:  cfg.MinQueryLen,
	}
}

// Input reacts to a keystroke in the search field. A write caused by a
// selection is swallowed once via the suppression flag.
func (c *Controller) Input(ctx context.Context, text string) {
	c.mu.Lock()

	if c.suppressNext {
		c.suppressNext = false
		c.mu.Unlock()
		return
	}

	c.queryText = text
	c.selectedVenueID = ""

	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}

	// Bumping the generation invalidates any in-flight response, so a
	// stale result can never repaint the panel after this keystroke.
	c.generation++
	gen := c.generation

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < c.minQuery {
		c.results = nil
		c.panel = PanelHidden
		c.mu.Unlock()
		return
	}

	c.panel = PanelLoading
	c.pending = c.scheduler.AfterFunc(c.debounce, func() {
		c.fire(ctx, gen, trimmed)
	})
	c.mu.Unlock()
}

// fire runs once per quiet period, for the last keystroke in the burst.
func (c *Controller) fire(ctx context.Context, gen uint64, query string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	venues, err := c.backend.SearchVenues(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A later keystroke superseded this request while it was in flight.
	if gen != c.generation {
		return
	}

	if err != nil {
		// Background failure: placeholder only, never a notification.
		c.logger.Error().Err(err).Str("query", query).Msg("venue search failed")
		c.results = nil
		c.panel = PanelFailed
		c.publish(query, nil, true)
		return
	}

	c.results = venues
	if len(venues) == 0 {
		c.panel = PanelEmpty
	} else {
		c.panel = PanelResults
	}
	c.publish(query, venues, false)
}

func (c *Controller) publish(query string, venues []models.Venue, failed bool) {
	if c.bus == nil {
		return
	}
	payload := events.SearchPayload{Query: query, Venues: venues, Failed: failed}
	if err := c.bus.PublishJSON(events.EventSearchResults, payload); err != nil {
		c.logger.Error().Err(err).Msg("search: publish results")
	}
}

// Select commits a result: the form gets the venue's name and id, the panel
// closes, and the programmatic input rewrite is suppressed.
func (c *Controller) Select(venue models.Venue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryText = venue.Name
	c.selectedVenueID = venue.VenueID
	c.suppressNext = true
	c.panel = PanelHidden
}

// ClickOutside closes the panel without touching query or selection.
func (c *Controller) ClickOutside() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = PanelHidden
}

// Focus re-shows the previous results for a still-valid query, without
// issuing a new request.
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(strings.TrimSpace(c.queryText)) >= c.minQuery && len(c.results) > 0 {
		c.panel = PanelResults
	}
}

// Query returns the current query text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryText
}

// SelectedVenueID returns the committed venue id, empty when none.
func (c *Controller) SelectedVenueID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedVenueID
}

// Results returns a snapshot of the current result list.
func (c *Controller) Results() []models.Venue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Venue, len(c.results))
	copy(out, c.results)
	return out
}

// PanelState returns the dropdown's current visibility state.
func (c *Controller) PanelState() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}
