// Package homy is the client for the marketplace admin REST API.
package homy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/homy/homyadmin/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("github.com/homy/homyadmin/homy")

// TokenStore is where the client reads the bearer token from, and where Login and
// Logout write it. *session.Session implements it.
type TokenStore interface {
	Get() string
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Client struct {
	rc     *resty.Client
	tokens TokenStore
	log    *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30 * time.Second).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)),
		tokens: tokens,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rc.
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)

	// the one place the bearer token is attached
	c.rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if c.tokens == nil {
			return nil
		}
		if tok := c.tokens.Get(); tok != "" {
			r.SetAuthToken(tok)
		}
		return nil
	})

	return c
}

// only reads are retried, actions are not idempotent
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func IsUnauthorized(err error) bool {
	c := code(err)
	return c == http.StatusUnauthorized || c == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return code(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by an API error, or 0.
func StatusCode(err error) int {
	return code(err)
}

type envelopeHead struct {
	Success *bool       `json:"success"`
	Status  *api.Status `json:"status"`
	Message string      `json:"message"`
	Error   any         `json:"error"`
}

func (h envelopeHead) message() string {
	if h.Status != nil && h.Status.Message != "" {
		return h.Status.Message
	}
	if h.Message != "" {
		return h.Message
	}
	switch e := h.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}

type reqOpt func(*resty.Request)

func body(v any) reqOpt {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(v)
	}
}

func query(k, v string) reqOpt {
	return func(r *resty.Request) {
		r.SetQueryParam(k, v)
	}
}

func pathParam(k, v string) reqOpt {
	return func(r *resty.Request) {
		r.SetPathParam(k, v)
	}
}

// call performs one request and unwraps the {success, data, status} envelope.
func call[T any](ctx context.Context, c *Client, method, path string, opts ...reqOpt) (T, error) {
	var zero T

	ctx, span := tracer.Start(ctx, "homy "+method+" "+path,
		trace.WithAttributes(attribute.String("http.method", method)))
	defer span.End()

	req := c.rc.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	rsp, err := req.Execute(method, path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("api request failed", "method", method, "path", path, "err", err)
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.Debug("api request", "method", method, "path", path,
		"status", rsp.StatusCode(), "took", time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", rsp.StatusCode()))

	raw := bytes.TrimSpace(rsp.Body())

	var head envelopeHead
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &head)
	}

	if rsp.IsError() || (head.Success != nil && !*head.Success) {
		e := &Error{Code: rsp.StatusCode(), Message: head.message()}
		if head.Status != nil && head.Status.Code != 0 && !rsp.IsError() {
			e.Code = head.Status.Code
		}
		if e.Code < 400 {
			e.Code = http.StatusBadGateway
		}
		if e.Message == "" {
			e.Message = http.StatusText(rsp.StatusCode())
		}
		span.SetStatus(codes.Error, e.Error())
		return zero, e
	}

	if len(raw) == 0 {
		return zero, nil
	}

	var env api.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return env.Data, nil
}
