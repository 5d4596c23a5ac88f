package luxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minersched/minersched/pkg/log"
)

// DefaultTimeout bounds a single control API call.
const DefaultTimeout = 5 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 64 << 10

// Config configures a Client.
type Config struct {
	// BaseURL is the control API root, e.g. "http://127.0.0.1:5000".
	BaseURL string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (tests, custom transports).
	HTTPClient *http.Client

	// EventLogger receives request/response events. Nil disables capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Client talks to the control API over HTTP.
type Client struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
	events  log.Logger
	logger  *slog.Logger
}

// NewClient creates a client for the control API at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	c := &Client{
		base:    u,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		events:  log.OrNoop(cfg.EventLogger),
		logger:  cfg.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Login opens (or reuses) a session for the miner at address.
//
// A non-OK status is not an error: the result carries the status and the
// caller decides. Errors wrap ErrTransport or ErrMalformedResponse.
func (c *Client) Login(ctx context.Context, address string) (LoginResult, error) {
	ctx = withDevice(ctx, address)

	status, body, err := c.post(ctx, PathLogin, "", loginRequest{MinerIP: address})
	if err != nil {
		return LoginResult{}, err
	}

	var resp loginResponse
	decodeErr := json.Unmarshal(body, &resp)

	result := LoginResult{
		StatusCode: status,
		Message:    resp.Message,
		Token:      resp.Token,
	}
	c.logResponse(ctx, PathLogin, "", status, resp.Message, loginOutcome(status))

	if status != http.StatusOK {
		return result, nil
	}
	if decodeErr != nil {
		return LoginResult{}, fmt.Errorf("%w: login: %v", ErrMalformedResponse, decodeErr)
	}
	if resp.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login: no token", ErrMalformedResponse)
	}

	result.AlreadyLoggedIn = strings.Contains(strings.ToLower(resp.Message), "already")
	if resp.TTL != "" {
		ttl, err := http.ParseTime(resp.TTL)
		if err != nil {
			c.logger.Warn("unparseable session ttl", "device", address, "ttl", resp.TTL, "error", err)
		} else {
			result.TTL = &ttl
		}
	}
	return result, nil
}

// SetProfile requests a performance profile change.
func (c *Client) SetProfile(ctx context.Context, token, profile string) (Result, error) {
	return c.change(ctx, PathProfileSet, profile, profileRequest{Token: token, Profile: profile})
}

// SetMode requests a power mode change.
func (c *Client) SetMode(ctx context.Context, token, mode string) (Result, error) {
	return c.change(ctx, PathCurtail, mode, modeRequest{Token: token, Mode: mode})
}

func (c *Client) change(ctx context.Context, path, target string, payload any) (Result, error) {
	status, body, err := c.post(ctx, path, target, payload)
	if err != nil {
		return Result{}, err
	}

	// The body only matters for 400s; a success without a message is fine.
	var resp messageResponse
	_ = json.Unmarshal(body, &resp)

	result := Result{
		StatusCode: status,
		Message:    resp.Message,
		Outcome:    Classify(status, resp.Message),
	}
	c.logResponse(ctx, path, target, status, resp.Message, result.Outcome.String())
	return result, nil
}

// post sends a JSON request and returns the status and body.
func (c *Client) post(ctx context.Context, path, target string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s request: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logRequest(ctx, path, target)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logTransportError(ctx, path, err)
		return 0, nil, fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logTransportError(ctx, path, err)
		return 0, nil, fmt.Errorf("%w: %s: read body: %v", ErrTransport, path, err)
	}

	c.logger.Debug("control api call",
		"device", deviceFromContext(ctx),
		"endpoint", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp.StatusCode, body, nil
}

func loginOutcome(status int) string {
	if status == http.StatusOK {
		return "OK"
	}
	return "REJECTED"
}

// Event capture

func (c *Client) logRequest(ctx context.Context, path, target string) {
	c.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionOut,
		Layer:      log.LayerAPI,
		Category:   log.CategoryMessage,
		DeviceAddr: deviceFromContext(ctx),
		Exchange: &log.ExchangeEvent{
			Type:     log.MessageTypeRequest,
			Endpoint: path,
			Target:   target,
		},
	})
}

func (c *Client) logResponse(ctx context.Context, path, target string, status int, message, outcome string) {
	c.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionIn,
		Layer:      log.LayerAPI,
		Category:   log.CategoryMessage,
		DeviceAddr: deviceFromContext(ctx),
		Exchange: &log.ExchangeEvent{
			Type:       log.MessageTypeResponse,
			Endpoint:   path,
			Target:     target,
			StatusCode: status,
			Message:    message,
			Outcome:    outcome,
		},
	})
}

func (c *Client) logTransportError(ctx context.Context, path string, err error) {
	c.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionIn,
		Layer:      log.LayerAPI,
		Category:   log.CategoryError,
		DeviceAddr: deviceFromContext(ctx),
		Error: &log.ErrorEventData{
			Layer:   log.LayerAPI,
			Message: err.Error(),
			Context: path,
		},
	})
}

// The change endpoints identify the miner by token only, so callers tag
// the context with the address for logging.

type deviceKey struct{}

// ContextWithDevice returns a context tagged with the miner address used
// in log output and captured events.
func ContextWithDevice(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, deviceKey{}, address)
}

func withDevice(ctx context.Context, address string) context.Context {
	if deviceFromContext(ctx) == address {
		return ctx
	}
	return ContextWithDevice(ctx, address)
}

func deviceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey{}).(string); ok {
		return v
	}
	return ""
}

// Compile-time interface satisfaction check.
var _ ControlAPI = (*Client)(nil)
