package models

import "time"

// ActivityLogEntry is one line of the sniper's activity feed. The backend
// delivers entries newest first and the client never reorders them.
type ActivityLogEntry struct {
	ID        int64     `json:"id"`
	RequestID *int64    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Platform  *string   `json:"platform"`
	Details   *string   `json:"details"`
}

// SystemStatus is the aggregate counter snapshot. No identity; each poll
// replaces the previous one wholesale.
type SystemStatus struct {
	TotalRequests int `json:"total_requests"`
	ActiveSnipers int `json:"active_snipers"`
	TotalBookings int `json:"total_bookings"`
}
