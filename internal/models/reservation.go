package models

import "time"

// Reservation is a sniper request as the backend reports it. The client never
// mutates one directly; it only asks for transitions (retry, cancel) and
// re-reads the authoritative state.
type Reservation struct {
	ID              int64      `json:"id"`
	RestaurantName  string     `json:"restaurant_name"`
	Date            string     `json:"date"` // YYYY-MM-DD
	Time            string     `json:"time"` // HH:MM
	PartySize       int        `json:"party_size"`
	ContactEmail    string     `json:"contact_email"`
	Status          string     `json:"status"`
	Platform        *string    `json:"platform"`
	BookingOpenTime *time.Time `json:"booking_open_time,omitempty"`
	PollAttempts    int        `json:"poll_attempts"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ReservationDetail is the full view of one reservation, nested collections
// included. Returned only by the detail endpoint.
type ReservationDetail struct {
	Reservation
	Subscriptions []Subscription     `json:"subscriptions"`
	Bookings      []Booking          `json:"bookings"`
	Logs          []ActivityLogEntry `json:"logs"`
}

// ReservationDraft is the create payload. BookingOpenTime is a pointer so the
// key is omitted entirely when the user left it blank; the backend treats a
// missing key and an explicit value differently.
type ReservationDraft struct {
	RestaurantName  string  `json:"restaurant_name"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	PartySize       int     `json:"party_size"`
	ContactEmail    string  `json:"contact_email,omitempty"`
	VenueID         string  `json:"venue_id,omitempty"`
	BookingOpenTime *string `json:"booking_open_time,omitempty"`
}

// Subscription is a platform notification subscription attached to a
// reservation while the sniper waits for an availability alert.
type Subscription struct {
	ID              int64     `json:"id"`
	Platform        string    `json:"platform"`
	SubscribedAt    time.Time `json:"subscribed_at"`
	Active          bool      `json:"active"`
	SearchDate      string    `json:"search_date"`
	SearchTime      string    `json:"search_time"`
	SearchPartySize int       `json:"search_party_size"`
	RestaurantName  string    `json:"restaurant_name"`
	VenueID         *string   `json:"venue_id"`
}

// PlatformName returns the platform label or empty when the backend has not
// picked one yet.
func (r *Reservation) PlatformName() string {
	if r.Platform == nil {
		return ""
	}
	return *r.Platform
}

// IsTerminal reports whether the reservation can no longer change.
func (r *Reservation) IsTerminal() bool {
	return IsTerminalStatus(r.Status)
}
