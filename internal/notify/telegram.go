package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the subset of the bot API the sink needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink forwards notifications to a Telegram chat so the user hears
// about booking outcomes while away from the dashboard. Delivery retries
// with exponential backoff; Telegram being down never blocks the queue.
type TelegramSink struct {
	bot    TelegramSender
	chatID int64
	retry  RetryPolicy
	sleep  func(time.Duration)
}

// NewTelegramSink builds a sink with sane retry defaults.
func NewTelegramSink(bot TelegramSender, chatID int64, retry RetryPolicy) *TelegramSink {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	return &TelegramSink{bot: bot, chatID: chatID, retry: retry, sleep: time.Sleep}
}

// Notify sends the message, retrying transient failures.
func (s *TelegramSink) Notify(kind, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, formatAlert(kind, text))

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxRetries; attempt++ {
		if _, err := s.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt < s.retry.MaxRetries {
			s.sleep(s.retry.NextDelay(attempt))
		}
	}
	return fmt.Errorf("telegram send after %d attempts: %w", s.retry.MaxRetries, lastErr)
}

func formatAlert(kind, text string) string {
	switch kind {
	case KindError:
		return "sniper error: " + text
	default:
		return "sniper: " + text
	}
}
