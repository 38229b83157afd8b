// Package api translates typed client operations into HTTP requests against
// the TalkScribe service and JSON responses into typed results or one of the
// error kinds in errors.go.
//
// Authenticated calls attach the stored access token as a bearer header. On
// a 401 the client performs exactly one token refresh and retries the call
// once with the rotated token; concurrent 401s share a single in-flight
// refresh. A second 401, or a failed refresh, clears the token store and
// surfaces ErrUnauthenticated.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/talkscribe/talkscribe-go/internal/client/token"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

const (
	contentTypeJSON = "application/json"
	pathRefresh     = "/accounts/refresh/"
)

// Client is the HTTP API client. It holds no domain state beyond the token
// store it reads credentials from; entity caching is the state package's job.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *token.Store
	log     *zap.Logger

	refresh singleflight.Group

	mu        sync.Mutex
	onExpired func()
}

// New returns a Client talking to the service at baseURL. The http.Client's
// default timeout behavior applies; callers bound individual operations with
// a context.
func New(baseURL string, httpClient *http.Client, tokens *token.Store, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		log:     log,
	}
}

// OnSessionExpired registers a callback invoked after an irrecoverable
// refresh failure has cleared the token store. The session manager uses it
// to downgrade its state.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// doJSON marshals payload (when non-nil), performs the call, and decodes the
// response into out (when non-nil). authed selects the bearer-plus-retry
// behavior described in the package comment.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any, authed bool) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = b
	}
	return c.do(ctx, method, path, contentTypeJSON, body, out, authed)
}

// do performs one call. The body is kept as a byte slice so the single
// retry-after-refresh can resend it.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any, authed bool) error {
	reqID := uuid.NewString()
	start := time.Now()

	bearer := ""
	if authed {
		bearer = c.tokens.Get(token.Access)
	}
	resp, err := c.roundTrip(ctx, method, path, contentType, body, bearer, reqID)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}

	if authed && resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if rerr := c.refreshAccess(ctx); rerr != nil {
			c.log.Debug("token refresh failed",
				zap.String("request_id", reqID),
				zap.Error(rerr))
			c.expireSession()
			return ErrUnauthenticated
		}
		resp, err = c.roundTrip(ctx, method, path, contentType, body, c.tokens.Get(token.Access), reqID)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// The rotated token was rejected too; no further retries.
			drain(resp)
			c.expireSession()
			return ErrUnauthenticated
		}
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return errorFrom(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// roundTrip issues a single HTTP request. A transport failure is returned as
// *NetworkError.
func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte, bearer, reqID string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// refreshAccess exchanges the stored refresh token for a new pair and
// persists it. Concurrent callers share one in-flight exchange.
func (c *Client) refreshAccess(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		rt := c.tokens.Get(token.Refresh)
		if rt == "" {
			return nil, fmt.Errorf("no refresh token available")
		}
		body, err := json.Marshal(map[string]string{"refresh": rt})
		if err != nil {
			return nil, err
		}
		resp, err := c.roundTrip(ctx, http.MethodPost, pathRefresh, contentTypeJSON, body, "", uuid.NewString())
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
			return nil, errorFrom(resp)
		}
		var pair models.TokenPair
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			return nil, fmt.Errorf("invalid refresh response: %w", err)
		}
		if err := c.tokens.SetPair(pair.Access, pair.Refresh); err != nil {
			return nil, fmt.Errorf("persist tokens: %w", err)
		}
		c.log.Debug("access token rotated")
		return nil, nil
	})
	return err
}

// expireSession clears stored credentials and notifies the session manager.
func (c *Client) expireSession() {
	_ = c.tokens.Clear()
	c.mu.Lock()
	fn := c.onExpired
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// errorFrom builds a *RequestError from a non-2xx response, preferring the
// server's "error" or "detail" message when the body carries one.
func errorFrom(resp *http.Response) error {
	re := &RequestError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		var payload struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if jerr := json.Unmarshal(body, &payload); jerr == nil {
			if payload.Error != "" {
				re.Message = payload.Error
			} else if payload.Detail != "" {
				re.Message = payload.Detail
			}
		}
	}
	return re
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
