package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sniperdash/internal/events"
	"sniperdash/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFilter string

func (f staticFilter) Filter() string { return string(f) }

type fakeBackend struct {
	mu sync.Mutex

	listCalls    int
	listStatuses []string
	listErr      error
	listBlock    chan struct{} // when set, ListReservations waits on it

	activityCalls int
	activityErr   error

	statusCalls int
	statusErr   error
}

func (f *fakeBackend) ListReservations(ctx context.Context, status string) ([]models.Reservation, error) {
	f.mu.Lock()
	f.listCalls++
	f.listStatuses = append(f.listStatuses, status)
	block := f.listBlock
	err := f.listErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return []models.Reservation{{ID: 1, Status: models.StatusWaiting}}, nil
}

func (f *fakeBackend) Activity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activityCalls++
	if f.activityErr != nil {
		return nil, f.activityErr
	}
	return []models.ActivityLogEntry{{ID: 1, Action: "poll_attempt"}}, nil
}

func (f *fakeBackend) Status(ctx context.Context) (*models.SystemStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.SystemStatus{TotalRequests: 1}, nil
}

func newTestPoller(backend *fakeBackend, filter string, bus *events.EventBus) *Poller {
	logger := zerolog.New(io.Discard)
	return New(backend, staticFilter(filter), bus, time.Second, 30, &logger)
}

func TestTickRefreshesAllThree(t *testing.T) {
	backend := &fakeBackend{}
	bus := events.NewEventBus()

	var gotList, gotActivity, gotStatus atomic.Bool
	bus.Subscribe(events.EventReservationsUpdated, func(*events.Event) error { gotList.Store(true); return nil })
	bus.Subscribe(events.EventActivityUpdated, func(*events.Event) error { gotActivity.Store(true); return nil })
	bus.Subscribe(events.EventStatusUpdated, func(*events.Event) error { gotStatus.Store(true); return nil })

	p := newTestPoller(backend, "", bus)
	p.Tick(context.Background())
	p.Wait()

	assert.True(t, gotList.Load())
	assert.True(t, gotActivity.Load())
	assert.True(t, gotStatus.Load())
	assert.Equal(t, []string{""}, backend.listStatuses)
}

func TestOneFailureDoesNotBlockOthers(t *testing.T) {
	backend := &fakeBackend{activityErr: errors.New("http 500")}
	bus := events.NewEventBus()

	var mu sync.Mutex
	var listPayload *events.ReservationsPayload
	var activitySeen bool
	bus.Subscribe(events.EventReservationsUpdated, func(e *events.Event) error {
		var p events.ReservationsPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		mu.Lock()
		listPayload = &p
		mu.Unlock()
		return nil
	})
	bus.Subscribe(events.EventActivityUpdated, func(*events.Event) error {
		mu.Lock()
		activitySeen = true
		mu.Unlock()
		return nil
	})

	p := newTestPoller(backend, "", bus)
	p.Tick(context.Background())
	p.Wait()

	mu.Lock()
	require.NotNil(t, listPayload, "list result must be applied despite activity failure")
	assert.Len(t, listPayload.Reservations, 1)
	assert.False(t, activitySeen)
	mu.Unlock()

	// The failure does not poison later ticks.
	backend.mu.Lock()
	backend.activityErr = nil
	backend.mu.Unlock()
	p.Tick(context.Background())
	p.Wait()

	mu.Lock()
	recovered := activitySeen
	mu.Unlock()
	assert.True(t, recovered)
}

func TestFilterIsAppliedToListRefresh(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPoller(backend, "booked", nil)
	p.Tick(context.Background())
	p.Wait()

	assert.Equal(t, []string{"booked"}, backend.listStatuses)
}

func TestSlowFetchIsNotOverlapped(t *testing.T) {
	backend := &fakeBackend{listBlock: make(chan struct{})}
	p := newTestPoller(backend, "", nil)
	ctx := context.Background()

	p.Tick(ctx)
	// Second tick arrives while the list fetch is still in flight: the
	// list refresh is skipped, the other two still run.
	p.Tick(ctx)

	count := func(field *int) func() bool {
		return func() bool {
			backend.mu.Lock()
			defer backend.mu.Unlock()
			return *field >= 2
		}
	}
	assert.Eventually(t, count(&backend.activityCalls), time.Second, time.Millisecond)
	assert.Eventually(t, count(&backend.statusCalls), time.Second, time.Millisecond)

	assert.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.listCalls == 1
	}, time.Second, time.Millisecond, "in-flight list fetch is not overlapped")

	close(backend.listBlock)
	p.Wait()

	p.Tick(ctx)
	p.Wait()
	backend.mu.Lock()
	assert.Equal(t, 2, backend.listCalls, "resource resumes once the fetch returns")
	backend.mu.Unlock()
}

func TestRunTicksUntilCancelled(t *testing.T) {
	backend := &fakeBackend{}
	logger := zerolog.New(io.Discard)
	p := New(backend, staticFilter(""), nil, 10*time.Millisecond, 30, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// First cycle fires before the ticker; give a few periods for more.
	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.GreaterOrEqual(t, backend.listCalls, 2)
}
