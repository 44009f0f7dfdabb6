// Package remote talks to the users REST collection.
//
// The client holds no state besides its base URL and transport: every call maps to one
// HTTP request, and every non-success outcome becomes a TransportError or a RemoteError.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sgu-cli/internal/logging"
	"sgu-cli/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sgu-cli/internal/remote"

// RequestIDHeader carries a per-request id so client and server logs can be correlated.
const RequestIDHeader = "X-Request-Id"

type Client struct {
	base   string
	http   *http.Client
	log    logrus.FieldLogger
	tracer trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (which has no timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New returns a client for the collection at baseURL (e.g. http://localhost:8080/api/users).
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("remote: base url %q has no host", baseURL)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{},
		log:    logging.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the collection URL requests are issued against.
func (c *Client) BaseURL() string { return c.base }

// List fetches the whole collection in server order.
func (c *Client) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, OpList, http.MethodGet, c.base, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Get fetches a single user by id.
func (c *Client) Get(ctx context.Context, id model.ID) (model.User, error) {
	var u model.User
	if err := c.do(ctx, OpGet, http.MethodGet, c.itemURL(id), nil, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Create posts a new user. The response body is ignored; callers re-list.
func (c *Client) Create(ctx context.Context, f model.Fields) error {
	return c.do(ctx, OpCreate, http.MethodPost, c.base, f.User(""), nil)
}

// Update replaces the user addressed by id.
func (c *Client) Update(ctx context.Context, id model.ID, f model.Fields) error {
	return c.do(ctx, OpUpdate, http.MethodPut, c.itemURL(id), f.User(id), nil)
}

// Delete removes the user addressed by id.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	return c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) itemURL(id model.ID) string {
	return c.base + "/" + url.PathEscape(strings.TrimSpace(id.String()))
}

func (c *Client) do(ctx context.Context, op Op, method, target string, body any, out any) (err error) {
	reqID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{"op": string(op), "method": method, "url": target, "request_id": reqID})

	ctx, span := c.tracer.Start(ctx, "remote."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var rdr io.Reader
	if body != nil {
		b, mErr := json.Marshal(body)
		if mErr != nil {
			return &TransportError{Op: op, Method: method, URL: target, Err: fmt.Errorf("encode request: %w", mErr)}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &TransportError{Op: op, Method: method, URL: target, Err: err}
	}
	defer func() {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(start).Round(time.Millisecond)})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("non-success response")
		return &RemoteError{Op: op, Status: resp.StatusCode}
	}
	log.Debug("ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &TransportError{Op: op, Method: method, URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
