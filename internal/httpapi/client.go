package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petnames/reminders/internal/domain"
)

// HTTPError is a non-2xx API response. It unwraps to the matching domain error.
type HTTPError struct {
	StatusCode    int
	Code          string
	Message       string
	CorrelationID string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code back onto the error taxonomy.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return domain.ErrUnavailable
	case e.StatusCode >= 400:
		return domain.ErrInvalidArgument
	default:
		return nil
	}
}

// Client calls the notifications API. It implements cache.Source.
type Client struct {
	baseURL    string
	timezone   string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimezone sends tz with every request so "today" is the caller's day.
func WithTimezone(name string) ClientOption {
	return func(c *Client) { c.timezone = strings.TrimSpace(name) }
}

// WithRetryPolicy overrides the retry budget and backoff bounds.
func WithRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
	}
}

// NewClient creates a client for baseURL. A nil httpClient gets a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetGroupedNotifications fetches the user's grouped notifications.
func (c *Client) GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error) {
	var out NotificationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/notifications"+c.query(), userID, &out); err != nil {
		return domain.Notifications{}, err
	}
	return domain.Notifications{
		Groups: domain.NotificationGroups{
			Today:    nonNil(out.Today),
			Upcoming: nonNil(out.Upcoming),
			Past:     nonNil(out.Past),
		},
		UnreadCount: out.UnreadCount,
	}, nil
}

// DismissNotification dismisses one appointment for the user.
func (c *Client) DismissNotification(ctx context.Context, userID, appointmentID string) error {
	if strings.TrimSpace(appointmentID) == "" {
		return fmt.Errorf("httpapi: dismiss: %w: appointment id cannot be empty", domain.ErrInvalidArgument)
	}
	var out DismissResponse
	path := "/v1/notifications/" + url.PathEscape(appointmentID) + "/dismiss"
	return c.doJSON(ctx, http.MethodPost, path, userID, &out)
}

// MarkAllRead marks everything due today or later as read and returns the count.
func (c *Client) MarkAllRead(ctx context.Context, userID string) (int, error) {
	var out MarkAllReadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/mark-all-read"+c.query(), userID, &out); err != nil {
		return 0, err
	}
	return out.MarkedCount, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", "", nil)
}

func (c *Client) query() string {
	if c.timezone == "" {
		return ""
	}
	return "?" + url.Values{"tz": {c.timezone}}.Encode()
}

// doJSON retries transport errors, 429 and 5xx with exponential backoff,
// honoring Retry-After. Every mutation is idempotent, so POSTs retry too.
func (c *Client) doJSON(ctx context.Context, method, requestPath, userID string, out any) error {
	cid := uuid.NewString()
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(headerCorrelationID, cid)
		if userID != "" {
			req.Header.Set(headerUserID, userID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.maxRetries {
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("httpapi: %s %s: %w: %w", method, requestPath, domain.ErrUnavailable, err)
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("httpapi: %s %s: %w: %w", method, requestPath, domain.ErrUnavailable, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			return json.Unmarshal(payload, out)
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.maxRetries {
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		var errBody ErrorResponse
		_ = json.Unmarshal(payload, &errBody)
		if errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{
			StatusCode:    resp.StatusCode,
			Code:          errBody.Code,
			Message:       errBody.Message,
			CorrelationID: errBody.CorrelationID,
		}
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, maxDelay)
	}
	delay := c.baseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := http.ParseTime(header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nonNil(in []domain.Appointment) []domain.Appointment {
	if in == nil {
		return []domain.Appointment{}
	}
	return in
}
