package notify

import (
	"errors"
	"io"
	"testing"
	"time"

	"sniperdash/internal/clock"
	"sniperdash/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := zerolog.New(io.Discard)
	return NewQueue(fake, 4*time.Second, nil, &logger), fake
}

func TestNotificationExpires(t *testing.T) {
	q, fake := newTestQueue(t)

	q.Error("submit failed: Already booked")
	require.Len(t, q.Active(), 1)

	// Still present just before the TTL.
	fake.Advance(3999 * time.Millisecond)
	require.Len(t, q.Active(), 1)

	fake.Advance(2 * time.Millisecond)
	assert.Empty(t, q.Active())
}

func TestNotificationTimersAreIndependent(t *testing.T) {
	q, fake := newTestQueue(t)

	first := q.Success("reservation submitted")
	fake.Advance(2 * time.Second)
	second := q.Success("reservation cancelled")

	// First expires at +4s even though a later message arrived.
	fake.Advance(2001 * time.Millisecond)
	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
	assert.NotEqual(t, first.ID, active[0].ID)

	fake.Advance(2 * time.Second)
	assert.Empty(t, q.Active())
}

func TestNoDeduplication(t *testing.T) {
	q, _ := newTestQueue(t)

	q.Error("same text")
	q.Error("same text")
	active := q.Active()
	require.Len(t, active, 2)
	assert.NotEqual(t, active[0].ID, active[1].ID)
}

func TestQueuePublishesEvent(t *testing.T) {
	fake := clock.NewFake(time.Now())
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()

	var got int
	bus.Subscribe(events.EventNotification, func(*events.Event) error {
		got++
		return nil
	})

	q := NewQueue(fake, 4*time.Second, bus, &logger)
	q.Success("ok")
	assert.Equal(t, 1, got)
}

type fakeSender struct {
	failures int
	sent     []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramSinkRetries(t *testing.T) {
	sender := &fakeSender{failures: 2}
	sink := NewTelegramSink(sender, 100, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond})
	sink.sleep = func(time.Duration) {}

	err := sink.Notify(KindError, "booking failed")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "sniper error: booking failed", sender.sent[0])
}

func TestTelegramSinkGivesUp(t *testing.T) {
	sender := &fakeSender{failures: 10}
	sink := NewTelegramSink(sender, 100, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond})
	sink.sleep = func(time.Duration) {}

	err := sink.Notify(KindSuccess, "booked")
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4), "clamped to max")
}
