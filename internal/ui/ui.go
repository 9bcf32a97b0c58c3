// Package ui is the terminal presentation layer. It subscribes to the event
// bus, keeps the last payload per event type, and repaints the whole frame
// from that state. It never talks to the backend itself.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"sniperdash/internal/events"
	"sniperdash/internal/models"
	"sniperdash/internal/notify"
	"sniperdash/internal/view"
)

// Terminal renders the dashboard to out. All mutation comes in through bus
// handlers; Render is safe to call from a repaint ticker at the same time.
type Terminal struct {
	out    io.Writer
	queue  *notify.Queue
	logger *zerolog.Logger

	// clearScreen prefixes every frame with an ANSI clear. Off in tests.
	clearScreen bool

	mu           sync.Mutex
	filter       string
	reservations []models.Reservation
	activity     []models.ActivityLogEntry
	status       models.SystemStatus
	haveStatus   bool
	search       *events.SearchPayload
	detail       *models.ReservationDetail
	watchlist    []models.WatchedVenue
}

// NewTerminal constructs a renderer. queue may be nil when the caller does
// not surface notifications.
func NewTerminal(out io.Writer, queue *notify.Queue, logger *zerolog.Logger) *Terminal {
	return &Terminal{out: out, queue: queue, logger: logger, clearScreen: true}
}

// SetWatchlist installs the pinned venues shown in the header.
func (t *Terminal) SetWatchlist(list []models.WatchedVenue) {
	t.mu.Lock()
	t.watchlist = list
	t.mu.Unlock()
}

// DisableClear turns off the ANSI clear prefix, for tests and piped output.
func (t *Terminal) DisableClear() {
	t.clearScreen = false
}

// Attach subscribes the renderer to every event the core publishes. Each
// event repaints the frame; countdown refresh between events is the caller's
// repaint ticker.
func (t *Terminal) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventReservationsUpdated, t.onReservations)
	bus.Subscribe(events.EventActivityUpdated, t.onActivity)
	bus.Subscribe(events.EventStatusUpdated, t.onStatus)
	bus.Subscribe(events.EventSearchResults, t.onSearch)
	bus.Subscribe(events.EventDetailOpened, t.onDetailOpened)
	bus.Subscribe(events.EventDetailClosed, t.onDetailClosed)
	bus.Subscribe(events.EventNotification, t.onNotification)
}

func (t *Terminal) onReservations(event *events.Event) error {
	var payload events.ReservationsPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	t.mu.Lock()
	t.filter = payload.Filter
	t.reservations = payload.Reservations
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onActivity(event *events.Event) error {
	var payload events.ActivityPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	t.mu.Lock()
	t.activity = payload.Entries
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onStatus(event *events.Event) error {
	var payload events.StatusPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	t.mu.Lock()
	t.status = payload.Status
	t.haveStatus = true
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onSearch(event *events.Event) error {
	var payload events.SearchPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	t.mu.Lock()
	t.search = &payload
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onDetailOpened(event *events.Event) error {
	var detail models.ReservationDetail
	if err := json.Unmarshal(event.Payload, &detail); err != nil {
		return err
	}
	t.mu.Lock()
	t.detail = &detail
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onDetailClosed(*events.Event) error {
	t.mu.Lock()
	t.detail = nil
	t.mu.Unlock()
	t.Render(time.Now())
	return nil
}

func (t *Terminal) onNotification(*events.Event) error {
	// The queue already holds the entry; repaint so it shows up.
	t.Render(time.Now())
	return nil
}

// Render repaints the whole frame from the cached state. now drives the
// waiting countdowns, so a repaint ticker should call this every second.
func (t *Terminal) Render(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.clearScreen {
		b.WriteString("\033[2J\033[H")
	}

	t.writeHeader(&b)
	t.writeNotifications(&b)
	t.writeSearch(&b)
	t.writeReservations(&b, now)
	t.writeDetail(&b)
	t.writeActivity(&b)

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		t.logger.Error().Err(err).Msg("ui: write frame")
	}
}

func (t *Terminal) writeHeader(b *strings.Builder) {
	b.WriteString("sniperdash")
	if t.haveStatus {
		sv := view.RenderStatus(t.status)
		fmt.Fprintf(b, "  |  requests %d  active %d  booked %d",
			sv.TotalRequests, sv.ActiveSnipers, sv.TotalBookings)
	}
	b.WriteString("\n")

	if len(t.watchlist) > 0 {
		names := make([]string, 0, len(t.watchlist))
		for _, w := range t.watchlist {
			names = append(names, w.Name)
		}
		fmt.Fprintf(b, "watching: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
}

func (t *Terminal) writeNotifications(b *strings.Builder) {
	if t.queue == nil {
		return
	}
	for _, n := range t.queue.Active() {
		marker := "ok"
		if n.Kind == notify.KindError {
			marker = "!!"
		}
		fmt.Fprintf(b, "[%s] %s\n", marker, n.Text)
	}
}

func (t *Terminal) writeSearch(b *strings.Builder) {
	if t.search == nil {
		return
	}
	fmt.Fprintf(b, "search %q: ", t.search.Query)
	switch {
	case t.search.Failed:
		b.WriteString("search failed\n")
	case len(t.search.Venues) == 0:
		b.WriteString("no venues found\n")
	default:
		names := make([]string, 0, len(t.search.Venues))
		for _, v := range t.search.Venues {
			label := v.Name
			if v.Neighborhood != "" {
				label += " (" + v.Neighborhood + ")"
			}
			names = append(names, label)
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}
}

func (t *Terminal) writeReservations(b *strings.Builder, now time.Time) {
	label := t.filter
	if label == "" {
		label = "all"
	}
	fmt.Fprintf(b, "\nreservations (%s)\n", label)

	rows := view.RenderReservations(t.reservations, now)
	if len(rows) == 0 {
		b.WriteString("  none\n")
		return
	}

	w := tabwriter.NewWriter(b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  id\trestaurant\twhen\tparty\tplatform\tstatus\t")
	for _, r := range rows {
		status := r.StatusBadge
		if r.Annotation != "" {
			status += " (" + r.Annotation + ")"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s %s\t%d\t%s\t%s\t\n",
			r.ID, r.Restaurant, r.Date, r.Time, r.PartySize, r.Platform, status)
	}
	w.Flush()
}

func (t *Terminal) writeDetail(b *strings.Builder) {
	if t.detail == nil {
		return
	}
	d := t.detail
	fmt.Fprintf(b, "\ndetail #%d %s %s %s\n", d.ID, d.RestaurantName, d.Date, d.Time)
	for _, s := range d.Subscriptions {
		state := "inactive"
		if s.Active {
			state = "active"
		}
		fmt.Fprintf(b, "  sub %s %s\n", s.Platform, state)
	}
	for _, bk := range d.Bookings {
		fmt.Fprintf(b, "  booking %s %s %s\n", bk.Platform, bk.Date, bk.Time)
	}
	for _, l := range d.Logs {
		fmt.Fprintf(b, "  log %s %s\n", l.Timestamp.Format("15:04:05"), l.Action)
	}
}

func (t *Terminal) writeActivity(b *strings.Builder) {
	rows := view.RenderActivity(t.activity)
	if len(rows) == 0 {
		return
	}
	b.WriteString("\nactivity\n")
	for _, r := range rows {
		line := "  " + r.Timestamp + " " + r.Action
		if r.Platform != "" {
			line += " [" + r.Platform + "]"
		}
		if r.Details != "" {
			line += " " + r.Details
		}
		b.WriteString(line + "\n")
	}
}
