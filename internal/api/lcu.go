package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lol-autopilot/internal/config"
	"lol-autopilot/internal/lockfile"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var (
	// ErrTransport wraps connection-level failures (refused, timed out,
	// no descriptor yet). Callers re-resolve the lockfile and retry.
	ErrTransport    = errors.New("client transport error")
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrTransport)
)

// APIError is a non-2xx response from the local client.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Mentions reports whether the error body contains s, case-insensitively.
func (e *APIError) Mentions(s string) bool {
	return strings.Contains(strings.ToLower(e.Body), strings.ToLower(s))
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type LCUClient struct {
	lockfilePath string
	timeout      time.Duration
	client       *fasthttp.Client
	logger       zerolog.Logger

	mu      sync.RWMutex
	baseURL string
	auth    string
}

func NewLCUClient(cfg *config.Config, logger zerolog.Logger) *LCUClient {
	return &LCUClient{
		lockfilePath: cfg.LockfilePath,
		timeout:      cfg.RequestTimeout,
		logger:       logger,
		client: &fasthttp.Client{
			// the client serves a self-signed certificate on loopback
			TLSConfig:           &tls.Config{InsecureSkipVerify: true},
			MaxConnsPerHost:     8,
			ReadTimeout:         cfg.RequestTimeout,
			WriteTimeout:        cfg.RequestTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Connect parses the lockfile and points the client at it.
func (c *LCUClient) Connect() error {
	d, err := lockfile.Parse(c.lockfilePath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.UseDescriptor(d)
	c.logger.Info().Int("port", d.Port).Str("protocol", d.Protocol).Msg("connected to client")
	return nil
}

// Reconnect re-resolves the lockfile; the client picks a new port and
// password every time it restarts.
func (c *LCUClient) Reconnect() error {
	c.logger.Warn().Msg("re-reading lockfile after transport error")
	return c.Connect()
}

func (c *LCUClient) UseDescriptor(d lockfile.Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = d.BaseURL()
	c.auth = d.AuthHeader()
}

func (c *LCUClient) endpoint() (string, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.baseURL == "" {
		return "", "", ErrNotConnected
	}
	return c.baseURL, c.auth, nil
}

// do sends one request and returns the body of a 2xx response.
func (c *LCUClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baseURL, auth, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	raw := append([]byte(nil), resp.Body()...)
	status := resp.StatusCode()
	if status < 200 || status > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: status, Body: string(raw)}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return nil, apiErr
	}

	c.logger.Debug().Str("method", method).Str("path", path).Int("status", status).Msg("client request")
	return raw, nil
}

func doRequest[T any](ctx context.Context, c *LCUClient, method, path string, body any) (*T, error) {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var result T
	if len(raw) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return &result, nil
}
