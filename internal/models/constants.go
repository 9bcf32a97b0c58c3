package models

// Reservation statuses observed from the backend. The set is backend-owned
// and open-ended; consumers must not assume it is closed.
const (
	StatusPending        = "pending"
	StatusSearching      = "searching"
	StatusWaiting        = "waiting"
	StatusPolling        = "polling"
	StatusNotifyReceived = "notify_received"
	StatusNoAvailability = "no_availability"
	StatusBooked         = "booked"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
)

const (
	// DefaultPollInterval период фонового опроса backend'а
	DefaultPollInterval = 5 // секунд

	// DefaultActivityLimit количество записей журнала активности за опрос
	DefaultActivityLimit = 30

	// DefaultDebounce пауза ввода перед поиском площадок
	DefaultDebounce = 350 // миллисекунд

	// DefaultMinQueryLen минимальная длина запроса автодополнения
	DefaultMinQueryLen = 2

	// DefaultNotificationTTL время жизни уведомления
	DefaultNotificationTTL = 4000 // миллисекунд

	// VenueCacheTTL время жизни кэша поиска площадок
	VenueCacheTTL = 5 * 60 // 5 минут в секундах
)

// IsTerminalStatus reports whether no further transition can occur.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusBooked, StatusCancelled:
		return true
	default:
		return false
	}
}
