// Package api is the single chokepoint for calls to the fitness backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/fittrack-cli/internal/metrics"
	"github.com/saadjs/fittrack-cli/internal/storage"
)

const DefaultBaseURL = "http://localhost:8080/api"

// TokenProvider returns the current bearer token, or "" when there is none.
type TokenProvider func() string

// SessionStorage is the durable state the client reads its fallback token
// from and wipes when the server rejects the session.
type SessionStorage interface {
	Get(key string) (string, bool, error)
	Clear() error
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Storage    SessionStorage
	// OnSessionExpired runs after local state is cleared on a 401.
	OnSessionExpired func()
	Logger           *zap.Logger
	Metrics          *metrics.Client

	mu            sync.RWMutex
	tokenProvider TokenProvider
}

// SetTokenProvider replaces the token supplier. It is consulted on every
// request; the token itself is never cached.
func (c *Client) SetTokenProvider(p TokenProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenProvider = p
}

// Request issues one call and returns the JSON body untouched. Envelope
// handling is left to callers.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, method, endpoint, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, extra http.Header) (json.RawMessage, error) {
	log := c.logger()
	op := method + " " + endpoint

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", op, err)
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.resolveToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	route := routeLabel(endpoint)
	started := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Metrics.ObserveRequest(route, method, 0, time.Since(started))
		log.Info("api request failed", zap.String("op", op), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.Metrics.ObserveRequest(route, method, resp.StatusCode, time.Since(started))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession(log)
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: statusText(resp), Body: raw}
		log.Info("api request failed", zap.String("op", op), zap.Int("status", resp.StatusCode))
		return nil, httpErr
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode %s response: invalid JSON", op)
	}
	log.Debug("api response", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
	return json.RawMessage(raw), nil
}

func (c *Client) resolveToken() string {
	c.mu.RLock()
	provider := c.tokenProvider
	c.mu.RUnlock()
	if provider != nil {
		if token := strings.TrimSpace(provider()); token != "" {
			return token
		}
	}
	if c.Storage == nil {
		return ""
	}
	token, ok, err := c.Storage.Get(storage.KeyToken)
	if err != nil || !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *Client) expireSession(log *zap.Logger) {
	c.Metrics.ObserveSessionExpired()
	if c.Storage != nil {
		if err := c.Storage.Clear(); err != nil {
			log.Warn("failed to clear local storage", zap.Error(err))
		}
	}
	if c.OnSessionExpired != nil {
		c.OnSessionExpired()
	}
}

func (c *Client) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// routeLabel collapses ids so metric labels stay bounded.
func routeLabel(endpoint string) string {
	path := endpoint
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, prefix := range []string{"/recommendations/activity/", "/activities/"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return prefix + "{id}"
		}
	}
	return path
}
