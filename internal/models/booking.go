package models

// Booking is a confirmed platform reservation attached to a request.
// Append-only: once the backend records one it never changes.
type Booking struct {
	ID             int64   `json:"id"`
	RequestID      int64   `json:"request_id"`
	Platform       string  `json:"platform"`
	ConfirmationID *string `json:"confirmation_id"`
	RestaurantName string  `json:"restaurant_name"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	PartySize      int     `json:"party_size"`
	Status         string  `json:"status"`
}
