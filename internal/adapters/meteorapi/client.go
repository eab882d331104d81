// Package meteorapi is a typed client for the remote impact simulation and
// near-earth-object search service.
package meteorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/pkg/metrics"
	"github.com/samirrijal/meteorguard/internal/pkg/telemetry"
)

const (
	opSimulate  = "simulate"
	opSearch    = "neo_search"
	opNEODetail = "neo_detail"
	opHealth    = "health"

	maxErrorBody = 512
)

// Config is the explicit client configuration. Nothing is read from the
// environment by the client itself.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RequiredThresholds lists the overpressure keys a simulation result must
	// carry to be accepted. Defaults to 1psi and 5psi.
	RequiredThresholds []string
}

// Option customises a Client.
type Option func(*Client)

// WithDial replaces the transport dialer; used to point the client at an
// in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// Client implements ports.SimulationClient over fasthttp. Each call is a
// single attempt; there is no retry.
type Client struct {
	cfg    Config
	base   string
	http   *fasthttp.Client
	tracer trace.Tracer
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("meteorapi: base url must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if len(cfg.RequiredThresholds) == 0 {
		cfg.RequiredThresholds = []string{domain.Threshold1psi, domain.Threshold5psi}
	}

	c := &Client{
		cfg:  cfg,
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		},
		tracer: otel.Tracer(telemetry.TracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Simulate posts entry parameters to /simulate and returns the validated result.
func (c *Client) Simulate(ctx context.Context, params domain.EntryParams) (*domain.SimulationResult, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var result domain.SimulationResult
	err := c.do(ctx, opSimulate, fasthttp.MethodPost, "/simulate", params, &result, domain.ErrSimulationFailed, func() error {
		return result.Validate(c.cfg.RequiredThresholds)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchNEO posts a query to /neo/search.
func (c *Client) SearchNEO(ctx context.Context, query domain.NEOSearchQuery) ([]domain.NEO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var rows []domain.NEO
	err := c.do(ctx, opSearch, fasthttp.MethodPost, "/neo/search", query, &rows, domain.ErrSearchFailed, func() error {
		if rows == nil {
			return fmt.Errorf("%w: expected a JSON array", domain.ErrMalformedResponse)
		}
		for i, r := range rows {
			if strings.TrimSpace(r.Des) == "" {
				return fmt.Errorf("%w: row %d has no des", domain.ErrMalformedResponse, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NEODetail fetches the raw catalogue record for a designation.
func (c *Client) NEODetail(ctx context.Context, des string) (json.RawMessage, error) {
	des = strings.TrimSpace(des)
	if des == "" {
		return nil, fmt.Errorf("%w: designation is required", domain.ErrInvalidInput)
	}

	var raw json.RawMessage
	err := c.do(ctx, opNEODetail, fasthttp.MethodGet, "/neo/detail/"+url.PathEscape(des), nil, &raw, domain.ErrSearchFailed, func() error {
		if len(raw) == 0 || raw[0] != '{' {
			return fmt.Errorf("%w: expected a JSON object", domain.ErrMalformedResponse)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Health checks that the simulation service answers /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, opHealth, fasthttp.MethodGet, "/health", nil, nil, domain.ErrSimulationFailed, nil)
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: upstream returned %d: %s", e.kind, e.Op, e.StatusCode, e.Body)
}

// Unwrap exposes the domain error kind (ErrSimulationFailed / ErrSearchFailed).
func (e *StatusError) Unwrap() error { return e.kind }

func (c *Client) do(ctx context.Context, op, method, path string, body, out any, kind error, validate func() error) (err error) {
	ctx, span := c.tracer.Start(ctx, "meteorapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(telemetry.AttrOperation, op),
			attribute.String(telemetry.AttrUpstreamURL, c.base+path),
		),
	)
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(op, start, err)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues(op, errorKind(err)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", kind, op, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.SetUserAgent(c.cfg.UserAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{h: &req.Header})

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: %s: %v", kind, op, context.DeadlineExceeded)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("%w: %s: %v", kind, op, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int(telemetry.AttrHTTPStatus, status))
	if status < 200 || status > 299 {
		return &StatusError{Op: op, StatusCode: status, Body: truncate(resp.Body()), kind: kind}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, op, err)
	}
	if validate != nil {
		if err := validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func errorKind(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.As(err, &se):
		return "status"
	default:
		return "transport"
	}
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// headerCarrier adapts fasthttp request headers to propagation.TextMapCarrier.
type headerCarrier struct {
	h *fasthttp.RequestHeader
}

func (c headerCarrier) Get(key string) string { return string(c.h.Peek(key)) }

func (c headerCarrier) Set(key, value string) { c.h.Set(key, value) }

func (c headerCarrier) Keys() []string {
	var keys []string
	c.h.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}
