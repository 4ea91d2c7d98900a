package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

const (
	CartTokenHeader = "X-Cart-Token"
	maxResponseSize = 10 << 20
)

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	ReadRetries     int
	MutationRetries int
}

// DefaultConfig retries reads twice and mutations once
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         10 * time.Second,
		ReadRetries:     2,
		MutationRetries: 1,
	}
}

// Client talks to the backend REST API. Identity headers come from the
// session bound to the request context.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	readRetries     int
	mutationRetries int
	logger          *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		readRetries:     cfg.ReadRetries,
		mutationRetries: cfg.MutationRetries,
		logger:          logger.Named("backend"),
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *paging.Meta    `json:"meta,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any, meta *paging.Meta) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, meta)
}

// do sends the request, retrying network failures and 5xx responses. There
// is no backoff between attempts.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, meta *paging.Meta) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}

	retries := c.mutationRetries
	if method == http.MethodGet {
		retries = c.readRetries
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = c.send(ctx, method, path, query, payload, out, meta)
		if err == nil {
			return nil
		}
		be, ok := AsError(err)
		if !ok || !be.Retryable() || ctx.Err() != nil {
			return err
		}
		if attempt < retries {
			c.logger.Debug("retrying backend request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, out any, meta *paging.Meta) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setIdentityHeaders(req, session.FromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 || (out == nil && meta == nil) {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response envelope", Err: err}
	}
	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response data", Err: err}
		}
	}
	if meta != nil && env.Meta != nil {
		*meta = *env.Meta
	}
	return nil
}

// setIdentityHeaders attaches the cart token whenever the session has one,
// logged in or not, so the backend can merge a guest cart after login.
func setIdentityHeaders(req *http.Request, id session.Identity) {
	if id.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+id.AuthToken)
	}
	if id.CartToken != "" {
		req.Header.Set(CartTokenHeader, id.CartToken)
	}
	if id.Locale != "" {
		req.Header.Set("Accept-Language", id.Locale)
	}
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
