package session

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"sniperdash/internal/api"
	"sniperdash/internal/events"
	"sniperdash/internal/models"
	"sniperdash/internal/notify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateReservation(ctx context.Context, draft models.ReservationDraft) (*models.Reservation, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockAPI) RetryReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) CancelReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) GetReservation(ctx context.Context, id int64) (*models.ReservationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReservationDetail), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RefreshReservations(ctx context.Context) { m.Called(ctx) }
func (m *mockRefresher) RefreshAll(ctx context.Context)          { m.Called(ctx) }

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(text string) notify.Notification {
	n.successes = append(n.successes, text)
	return notify.Notification{Kind: notify.KindSuccess, Text: text}
}

func (n *recordingNotifier) Error(text string) notify.Notification {
	n.errors = append(n.errors, text)
	return notify.Notification{Kind: notify.KindError, Text: text}
}

func newTestSession(apiMock *mockAPI, refresher *mockRefresher, notifier *recordingNotifier, bus *events.EventBus) *Session {
	logger := zerolog.New(io.Discard)
	return New(apiMock, refresher, notifier, bus, &logger)
}

func TestSetFilterRefreshesImmediately(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	s := newTestSession(apiMock, refresher, notifier, nil)
	ctx := context.Background()

	refresher.On("RefreshReservations", ctx).Once()
	s.SetFilter(ctx, "booked")

	assert.Equal(t, "booked", s.Filter())
	refresher.AssertExpectations(t)
}

func TestSubmitSuccess(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	s := newTestSession(apiMock, refresher, notifier, nil)
	ctx := context.Background()

	draft := models.ReservationDraft{RestaurantName: "Carbone", Date: "2024-06-01", Time: "19:00", PartySize: 4}
	created := &models.Reservation{ID: 1, RestaurantName: "Carbone", Status: models.StatusPending}

	apiMock.On("CreateReservation", ctx, draft).Return(created, nil).Once()
	refresher.On("RefreshAll", ctx).Once()

	require.NoError(t, s.Submit(ctx, draft))
	require.Len(t, notifier.successes, 1)
	assert.Contains(t, notifier.successes[0], "Carbone")
	apiMock.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestSubmitFailureSurfacesBackendText(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	s := newTestSession(apiMock, refresher, notifier, nil)
	ctx := context.Background()

	draft := models.ReservationDraft{RestaurantName: "Carbone", Date: "2024-06-01", Time: "19:00", PartySize: 4}
	reqErr := &api.RequestError{StatusCode: 400, Message: "Already booked"}
	apiMock.On("CreateReservation", ctx, draft).Return(nil, reqErr).Once()

	err := s.Submit(ctx, draft)
	require.Error(t, err)

	// The backend's error text reaches the user verbatim, and no refresh
	// fires so the form state stays put.
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "Already booked")
	refresher.AssertNotCalled(t, "RefreshAll", ctx)
}

func TestRetryAndCancel(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	s := newTestSession(apiMock, refresher, notifier, nil)
	ctx := context.Background()

	t.Run("RetrySuccess", func(t *testing.T) {
		apiMock.On("RetryReservation", ctx, int64(5)).Return(nil).Once()
		refresher.On("RefreshAll", ctx).Once()
		require.NoError(t, s.Retry(ctx, 5))
	})

	t.Run("CancelFailure", func(t *testing.T) {
		reqErr := &api.RequestError{StatusCode: 404, Message: "Reservation not found"}
		apiMock.On("CancelReservation", ctx, int64(6)).Return(reqErr).Once()
		require.Error(t, s.Cancel(ctx, 6))
		require.NotEmpty(t, notifier.errors)
		assert.Contains(t, notifier.errors[len(notifier.errors)-1], "Reservation not found")
	})

	apiMock.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestDetailLifecycle(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	bus := events.NewEventBus()

	var opened, closed int
	bus.Subscribe(events.EventDetailOpened, func(*events.Event) error { opened++; return nil })
	bus.Subscribe(events.EventDetailClosed, func(*events.Event) error { closed++; return nil })

	s := newTestSession(apiMock, refresher, notifier, bus)
	ctx := context.Background()

	_, open := s.Detail()
	assert.False(t, open, "initially closed")

	detail := &models.ReservationDetail{
		Reservation: models.Reservation{ID: 3, RestaurantName: "Via Carota", Status: models.StatusBooked},
		Bookings:    []models.Booking{{ID: 1, RequestID: 3}},
	}
	apiMock.On("GetReservation", ctx, int64(3)).Return(detail, nil).Once()

	require.NoError(t, s.OpenDetail(ctx, 3))
	got, open := s.Detail()
	require.True(t, open)
	assert.Equal(t, "Via Carota", got.RestaurantName)
	assert.Equal(t, 1, opened)

	// Closing is idempotent: the second close is a no-op.
	s.CloseDetail()
	s.CloseDetail()
	_, open = s.Detail()
	assert.False(t, open)
	assert.Equal(t, 1, closed)
}

func TestOpenDetailFailureStaysClosed(t *testing.T) {
	apiMock := new(mockAPI)
	refresher := new(mockRefresher)
	notifier := &recordingNotifier{}
	s := newTestSession(apiMock, refresher, notifier, nil)
	ctx := context.Background()

	reqErr := &api.RequestError{StatusCode: 404, Message: "Reservation not found"}
	apiMock.On("GetReservation", ctx, int64(8)).Return(nil, reqErr).Once()

	require.Error(t, s.OpenDetail(ctx, 8))
	_, open := s.Detail()
	assert.False(t, open)
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "Reservation not found")
}

func TestBuildDraft(t *testing.T) {
	t.Run("BlankBookingOpenTimeOmitted", func(t *testing.T) {
		draft, err := BuildDraft(FormInput{
			RestaurantName:  "Carbone",
			Date:            "2024-06-01",
			Time:            "19:00",
			PartySize:       "4",
			BookingOpenTime: "",
		})
		require.NoError(t, err)
		assert.Equal(t, 4, draft.PartySize)
		assert.Nil(t, draft.BookingOpenTime)

		data, err := json.Marshal(draft)
		require.NoError(t, err)
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &raw))
		_, present := raw["booking_open_time"]
		assert.False(t, present)
	})

	t.Run("BookingOpenTimeKept", func(t *testing.T) {
		draft, err := BuildDraft(FormInput{
			RestaurantName:  "Carbone",
			Date:            "2024-06-01",
			Time:            "19:00",
			PartySize:       "2",
			BookingOpenTime: "2024-05-25T09:00:00",
		})
		require.NoError(t, err)
		require.NotNil(t, draft.BookingOpenTime)
		assert.Equal(t, "2024-05-25T09:00:00", *draft.BookingOpenTime)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := []FormInput{
			{Date: "2024-06-01", Time: "19:00", PartySize: "4"},
			{RestaurantName: "Carbone", Time: "19:00", PartySize: "4"},
			{RestaurantName: "Carbone", Date: "2024-06-01", Time: "19:00", PartySize: "four"},
			{RestaurantName: "Carbone", Date: "2024-06-01", Time: "19:00", PartySize: "0"},
		}
		for _, in := range cases {
			_, err := BuildDraft(in)
			assert.Error(t, err)
		}
	})
}
