package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinema-booking-cli/model"
)

const (
	DefaultBaseURL     = "http://localhost:3000/api"
	defaultUserAgent   = "cinema-booking-cli"
	defaultTimeout     = 12 * time.Second
	defaultMaxAttempts = 1
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	errorSnippetN      = 200
)

// ErrTokenExpired is returned by a TokenSource whose stored token is no longer valid.
var ErrTokenExpired = errors.New("session expired, please log in again")

// TokenSource supplies the bearer token attached to requests. An empty token
// means the request is sent anonymously.
type TokenSource interface {
	Token() (string, error)
}

// Client wraps HTTP access to the cinema REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	tokens      TokenSource
	logger      *slog.Logger
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxAttempts enables retries of idempotent reads. Writes are always sent once.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Method     string
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "cinema api error"
	}
	if e.Message != "" {
		return fmt.Sprintf("cinema api error: %s: %s", e.Status, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("cinema api error: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("cinema api error: %s", e.Status)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether the API refused the request because of its
// content, which for reservation writes means the seat is already taken.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity)
}

// IsUnauthorized reports a missing, expired or insufficient token, whether
// detected locally or by the API.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return hasStatus(err, http.StatusUnauthorized, http.StatusForbidden)
}

func hasStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

// NewClient creates a new API client. If httpClient is nil, a default client is used.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     DefaultBaseURL,
		userAgent:   defaultUserAgent,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetRooms lists every showroom.
func (c *Client) GetRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetRoom fetches a single room's metadata.
func (c *Client) GetRoom(ctx context.Context, roomID int) (model.Room, error) {
	if roomID <= 0 {
		return model.Room{}, errors.New("room id is required")
	}
	endpoint := fmt.Sprintf("%s/rooms/%d", c.baseURL, roomID)
	var room model.Room
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &room); err != nil {
		return model.Room{}, err
	}
	if room.Id == 0 {
		return model.Room{}, fmt.Errorf("room %d not found", roomID)
	}
	return room, nil
}

// GetReservations returns every reservation of a room on a calendar date.
func (c *Client) GetReservations(ctx context.Context, roomID int, date time.Time) ([]model.Reservation, error) {
	if roomID <= 0 {
		return nil, errors.New("room id is required")
	}
	if date.IsZero() {
		return nil, errors.New("date is required")
	}
	query := url.Values{}
	query.Set("room_id", strconv.Itoa(roomID))
	query.Set("date", model.FormatDate(date))
	endpoint := c.baseURL + "/reservations?" + query.Encode()

	var reservations []model.Reservation
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// CreateReservation books one seat.
func (c *Client) CreateReservation(ctx context.Context, in model.NewReservation) (model.Reservation, error) {
	if in.RoomId <= 0 || in.UserId <= 0 {
		return model.Reservation{}, errors.New("room id and user id are required")
	}
	var created model.Reservation
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/reservations", in, &created); err != nil {
		return model.Reservation{}, err
	}
	if created.RoomId == 0 {
		created = model.Reservation{
			Id:              created.Id,
			UserId:          in.UserId,
			RoomId:          in.RoomId,
			SeatRow:         in.SeatRow,
			SeatColumn:      in.SeatColumn,
			ReservationDate: in.ReservationDate,
		}
	}
	return created, nil
}

// CancelReservation deletes a reservation by id.
func (c *Client) CancelReservation(ctx context.Context, reservationID int) error {
	if reservationID <= 0 {
		return errors.New("reservation id is required")
	}
	endpoint := fmt.Sprintf("%s/reservations/%d", c.baseURL, reservationID)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username string, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/auth/login", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login response did not include a token")
	}
	return out.Token, nil
}

// Register creates a new customer account.
func (c *Client) Register(ctx context.Context, username string, email string, password string) error {
	body := map[string]string{
		"username": strings.TrimSpace(username),
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/auth/register", body, nil)
}

func (c *Client) doJSON(ctx context.Context, method string, endpoint string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	token := ""
	if c.tokens != nil {
		var err error
		token, err = c.tokens.Token()
		if err != nil {
			return err
		}
	}

	maxAttempts := 1
	if method == http.MethodGet && c.maxAttempts > 1 {
		maxAttempts = c.maxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("api request failed", "method", method, "endpoint", endpoint, "attempt", attempt, "err", err)
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}
		c.logger.Debug("api request", "method", method, "endpoint", endpoint, "status", res.StatusCode, "attempt", attempt)

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Method:     method,
				Endpoint:   endpoint,
				Message:    errorMessage(snippet),
				Body:       compactErrorSnippet(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
			return nil
		}
		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

func compactErrorSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > errorSnippetN {
		text = text[:errorSnippetN]
	}
	return text
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
