package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sniperdash/internal/models"
)

// FormInput is the raw reservation form as the presentation layer collects
// it. Everything is a string; BuildDraft owns parsing and normalization.
type FormInput struct {
	RestaurantName  string
	Date            string
	Time            string
	PartySize       string
	ContactEmail    string
	VenueID         string
	BookingOpenTime string
}

// BuildDraft turns raw form fields into a create payload. A blank
// BookingOpenTime stays out of the payload entirely; the backend treats the
// key's presence as meaningful.
func BuildDraft(in FormInput) (models.ReservationDraft, error) {
	draft := models.ReservationDraft{
		RestaurantName: strings.TrimSpace(in.RestaurantName),
		Date:           strings.TrimSpace(in.Date),
		Time:           strings.TrimSpace(in.Time),
		ContactEmail:   strings.TrimSpace(in.ContactEmail),
		VenueID:        strings.TrimSpace(in.VenueID),
	}

	if draft.RestaurantName == "" {
		return draft, errors.New("restaurant name is required")
	}
	if draft.Date == "" || draft.Time == "" {
		return draft, errors.New("date and time are required")
	}

	size, err := strconv.Atoi(strings.TrimSpace(in.PartySize))
	if err != nil {
		return draft, fmt.Errorf("party size must be a number: %q", in.PartySize)
	}
	if size < 1 {
		return draft, fmt.Errorf("party size must be positive, got %d", size)
	}
	draft.PartySize = size

	if open := strings.TrimSpace(in.BookingOpenTime); open != "" {
		draft.BookingOpenTime = &open
	}

	return draft, nil
}
