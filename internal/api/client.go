package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sniperdash/internal/config"
	"sniperdash/internal/metrics"
	"sniperdash/internal/models"

	"github.com/redis/go-redis/v9"
)

// RequestError is the single failure kind for backend calls. Message holds
// the server's raw error body verbatim so foreground notifications can show
// it unchanged; network-level failures are wrapped before reaching here.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return e.Message
}

// Client is a thin HTTP wrapper over the sniper backend's REST API.
// No retries live at this layer; the poll loop and the explicit user
// "retry" action own their own policies.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client from backend config.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// UseRedisCache configures optional Redis caching for venue search results.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ListReservations fetches the reservation list, optionally narrowed by
// status. An empty status means all.
func (c *Client) ListReservations(ctx context.Context, status string) ([]models.Reservation, error) {
	endpoint := c.baseURL + "/api/reservations"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var out []models.Reservation
	if err := c.doGet(ctx, endpoint, "reservations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReservation fetches one reservation with nested bookings, logs and
// subscriptions.
func (c *Client) GetReservation(ctx context.Context, id int64) (*models.ReservationDetail, error) {
	endpoint := fmt.Sprintf("%s/api/reservations/%d", c.baseURL, id)
	var out models.ReservationDetail
	if err := c.doGet(ctx, endpoint, "reservation_detail", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReservation submits a new sniper request.
func (c *Client) CreateReservation(ctx context.Context, draft models.ReservationDraft) (*models.Reservation, error) {
	endpoint := c.baseURL + "/api/reservations"
	var out models.Reservation
	if err := c.doPost(ctx, endpoint, "create_reservation", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryReservation asks the backend to re-arm a reservation.
func (c *Client) RetryReservation(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("%s/api/reservations/%d/retry", c.baseURL, id)
	return c.doPost(ctx, endpoint, "retry_reservation", nil, nil)
}

// CancelReservation asks the backend to cancel a reservation.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("%s/api/reservations/%d", c.baseURL, id)
	return c.doDelete(ctx, endpoint, "cancel_reservation")
}

// SearchVenues runs an autocomplete venue search.
func (c *Client) SearchVenues(ctx context.Context, query string) ([]models.Venue, error) {
	endpoint := c.baseURL + "/api/reservations/search/venues?q=" + url.QueryEscape(query)
	cacheKey := "venue_search:" + strings.ToLower(strings.TrimSpace(query))

	var out []models.Venue
	if c.readCache(ctx, cacheKey, &out) {
		return out, nil
	}

	metrics.IncSearch()
	if err := c.doGet(ctx, endpoint, "venue_search", &out); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, out)
	return out, nil
}

// Activity fetches the newest activity log entries, newest first.
func (c *Client) Activity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	endpoint := fmt.Sprintf("%s/api/activity?limit=%d", c.baseURL, limit)
	var out []models.ActivityLogEntry
	if err := c.doGet(ctx, endpoint, "activity", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches the aggregate counters snapshot.
func (c *Client) Status(ctx context.Context) (*models.SystemStatus, error) {
	endpoint := c.baseURL + "/api/status"
	var out models.SystemStatus
	if err := c.doGet(ctx, endpoint, "status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings fetches all confirmed bookings.
func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	endpoint := c.baseURL + "/api/bookings"
	var out []models.Booking
	if err := c.doGet(ctx, endpoint, "bookings", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	endpoint := c.baseURL + "/api/health"
	return c.doGet(ctx, endpoint, "health", nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint, label string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, label, out)
}

func (c *Client) doPost(ctx context.Context, endpoint, label string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(req, label, out)
}

func (c *Client) doDelete(ctx context.Context, endpoint, label string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, label, nil)
}

func (c *Client) do(req *http.Request, label string, out any) error {
	metrics.IncAPIRequest(label)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIFailure(label)
		return fmt.Errorf("request %s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncAPIFailure(label)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
