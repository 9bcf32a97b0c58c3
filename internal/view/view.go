// Package view turns raw backend payloads into display-ready records.
// Everything here is a pure function of (payload, now): no caching, no
// stored state, so repeated renders from the same inputs are identical.
package view

import (
	"fmt"
	"strings"
	"time"

	"sniperdash/internal/models"
)

// ReservationView is one display row of the reservation list.
type ReservationView struct {
	ID         int64
	Restaurant string
	Date       string
	Time       string
	PartySize  int
	Platform   string

	// StatusToken is the raw backend status and drives styling;
	// StatusBadge is the human-readable form of the same token.
	StatusToken string
	StatusBadge string

	// Annotation is the auxiliary field for the status: a live countdown
	// while waiting, the attempt counter while polling, otherwise empty.
	Annotation string

	CanRetry  bool
	CanCancel bool
}

// ActivityView is one display row of the activity feed.
type ActivityView struct {
	Timestamp string
	Action    string
	Platform  string
	Details   string
}

// StatusView is the display form of the system counters.
type StatusView struct {
	TotalRequests int
	ActiveSnipers int
	TotalBookings int
}

// RenderReservations maps reservations to display rows. now is the render
// moment; countdowns must be recomputed on every call because it advances.
func RenderReservations(list []models.Reservation, now time.Time) []ReservationView {
	views := make([]ReservationView, 0, len(list))
	for i := range list {
		views = append(views, renderReservation(&list[i], now))
	}
	return views
}

func renderReservation(r *models.Reservation, now time.Time) ReservationView {
	terminal := models.IsTerminalStatus(r.Status)
	return ReservationView{
		ID:          r.ID,
		Restaurant:  r.RestaurantName,
		Date:        r.Date,
		Time:        r.Time,
		PartySize:   r.PartySize,
		Platform:    r.PlatformName(),
		StatusToken: r.Status,
		StatusBadge: badgeText(r.Status),
		Annotation:  annotation(r, now),
		CanRetry:    !terminal,
		CanCancel:   !terminal,
	}
}

// annotation picks the auxiliary field for the status. Unknown statuses get
// none; the backend owns the status set and may grow it.
func annotation(r *models.Reservation, now time.Time) string {
	switch r.Status {
	case models.StatusWaiting:
		if r.BookingOpenTime == nil {
			return ""
		}
		return countdown(r.BookingOpenTime.Sub(now))
	case models.StatusPolling:
		return fmt.Sprintf("attempt %d", r.PollAttempts)
	default:
		return ""
	}
}

// countdown formats time until the booking window opens. Once the moment
// passes the backend is expected to flip the status shortly; until then the
// row shows a fixed indicator rather than a negative time.
func countdown(remaining time.Duration) string {
	if remaining <= 0 {
		return "opening now"
	}
	mins := int(remaining / time.Minute)
	secs := int(remaining/time.Second) % 60
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func badgeText(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

// RenderActivity maps activity entries to display rows, preserving the
// backend's newest-first order.
func RenderActivity(entries []models.ActivityLogEntry) []ActivityView {
	views := make([]ActivityView, 0, len(entries))
	for _, e := range entries {
		v := ActivityView{
			Timestamp: e.Timestamp.Format("15:04:05"),
			Action:    badgeText(e.Action),
		}
		if e.Platform != nil {
			v.Platform = *e.Platform
		}
		if e.Details != nil {
			v.Details = *e.Details
		}
		views = append(views, v)
	}
	return views
}

// RenderStatus maps the counters snapshot to its display form.
func RenderStatus(s models.SystemStatus) StatusView {
	return StatusView{
		TotalRequests: s.TotalRequests,
		ActiveSnipers: s.ActiveSnipers,
		TotalBookings: s.TotalBookings,
	}
}
