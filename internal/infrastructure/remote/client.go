// Package remote is the REST client of the console API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/society/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client calls the console API
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sets the bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for cfg.BaseURL
func NewClient(cfg config.RemoteConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     zap.NewNop(),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token pair and keeps the access token
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token.AccessToken)
	return &out, nil
}

// FetchPermissions returns the caller's permission map
func (c *Client) FetchPermissions(ctx context.Context) (*access.PermissionMap, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/permissions", nil, &raw); err != nil {
		return nil, err
	}
	m, err := access.ParsePermissionMap(raw)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: http.StatusOK, Message: "malformed permission map", Err: err}
	}
	return m, nil
}

// Schedules returns both schedule variants
func (c *Client) Schedules(ctx context.Context) ([]dto.ScheduleResponse, error) {
	var out []dto.ScheduleResponse
	if err := c.do(ctx, http.MethodGet, "/maintenance-setting", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSchedule persists one variant and makes it active
func (c *Client) SaveSchedule(ctx context.Context, req dto.SaveScheduleRequest) (*dto.ScheduleResponse, error) {
	var out dto.ScheduleResponse
	if err := c.do(ctx, http.MethodPost, "/maintenance-setting/"+url.PathEscape(req.CostType), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportRows returns the raw bill rows whose period starts within [start, end]
func (c *Client) ReportRows(ctx context.Context, start, end time.Time, category billing.Category) ([]dto.ReportRow, error) {
	path := fmt.Sprintf("/table/financial/report/%s/%s/%s",
		start.Format(time.DateOnly), end.Format(time.DateOnly), url.PathEscape(string(category)))
	var out []dto.ReportRow
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// do sends one request. GETs are retried on transport failures.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet && c.maxRetries > 0 {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("Retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return &Error{Kind: KindTransport, Err: ctx.Err()}
			case <-time.After(c.retryDelay):
			}
		}
		lastErr = c.send(ctx, method, path, payload, out)
		if lastErr == nil || !IsTransport(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError(resp.StatusCode, env.Error)
	}
	if decodeErr != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "malformed response body", Err: decodeErr}
	}
	if !env.Success {
		return statusError(http.StatusUnprocessableEntity, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "malformed response data", Err: err}
	}
	return nil
}

func statusError(status int, info *dto.ErrorInfo) *Error {
	e := &Error{Kind: kindForStatus(status), Status: status}
	if info != nil {
		e.Code = info.Code
		e.Message = info.Message
		if info.Details != nil {
			e.Redirect = info.Details.Redirect
		}
	}
	if e.Kind == KindValidation {
		verr := shared.NewValidationError()
		if info != nil && info.Details != nil {
			verr.Fields = append(verr.Fields, info.Details.Fields...)
		}
		if !verr.HasErrors() {
			msg := e.Message
			if msg == "" {
				msg = http.StatusText(status)
			}
			// global failure
			verr.Add("", msg)
		}
		e.Err = verr
	}
	return e
}
