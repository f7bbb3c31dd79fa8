package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxBodySize = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithRateLimit caps outbound requests at rps per second with the given
// burst. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", "", req)
	if err != nil {
		return nil, err
	}
	var resp LoginResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register tolerates an empty success body; the message is optional.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return nil, err
	}
	var resp RegisterResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &resp, nil
	}
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListRooms(ctx context.Context, token string) ([]models.Room, error) {
	body, err := c.do(ctx, http.MethodGet, "/rooms", token, nil)
	if err != nil {
		return nil, err
	}
	rooms := make([]models.Room, 0)
	if err := decode(body, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom treats any 2xx as success. The echoed room is returned when the
// body decodes, nil otherwise.
func (c *HTTPClient) CreateRoom(ctx context.Context, token string, req CreateRoomRequest) (*models.Room, error) {
	body, err := c.do(ctx, http.MethodPost, "/rooms", token, req)
	if err != nil {
		return nil, err
	}
	var room models.Room
	if err := decode(body, &room); err != nil {
		c.logger.Debug(ctx, "create room: response body ignored", "error", err)
		return nil, nil
	}
	return &room, nil
}

// do sends one request and returns the raw body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	c.logger.Debug(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
