package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusBooked))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	assert.False(t, IsTerminalStatus(StatusWaiting))
	assert.False(t, IsTerminalStatus(StatusPolling))
	assert.False(t, IsTerminalStatus("some_future_status"))
}

func TestReservationPlatformName(t *testing.T) {
	r := Reservation{}
	assert.Equal(t, "", r.PlatformName())

	p := "resy"
	r.Platform = &p
	assert.Equal(t, "resy", r.PlatformName())
}

func TestReservationDraftOmitsEmptyBookingOpenTime(t *testing.T) {
	draft := ReservationDraft{
		RestaurantName: "Carbone",
		Date:           "2024-06-01",
		Time:           "19:00",
		PartySize:      4,
	}

	data, err := json.Marshal(draft)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw["booking_open_time"]
	assert.False(t, present, "blank booking_open_time must not be sent")
	assert.Equal(t, float64(4), raw["party_size"])
}

func TestReservationDecode(t *testing.T) {
	payload := `{
		"id": 7,
		"restaurant_name": "Don Angie",
		"date": "2024-07-04",
		"time": "20:00",
		"party_size": 2,
		"contact_email": "",
		"status": "waiting",
		"platform": null,
		"booking_open_time": "2024-06-27T09:00:00Z",
		"poll_attempts": 0,
		"created_at": "2024-06-20T15:04:05Z",
		"updated_at": "2024-06-20T15:04:05Z"
	}`

	var r Reservation
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	assert.Equal(t, int64(7), r.ID)
	assert.Nil(t, r.Platform)
	require.NotNil(t, r.BookingOpenTime)
	assert.Equal(t, time.Date(2024, 6, 27, 9, 0, 0, 0, time.UTC), r.BookingOpenTime.UTC())
	assert.False(t, r.IsTerminal())
}
