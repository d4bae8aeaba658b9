package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/billsync/backend/internal/domain/billing"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

const tracerName = "github.com/billsync/backend/internal/infrastructure/gateway"

// Client talks to the payment gateway on behalf of a single tenant.
// It is cheap to build and is created per tenant per call.
type Client struct {
	baseURL     string
	accessToken string
	tenantID    string
	pageSize    int
	userAgent   string
	httpClient  *http.Client
	tracer      trace.Tracer
	now         func() time.Time
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock replaces the clock used to stamp ObservedAt
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for tenant, choosing the endpoint by tenant mode
func NewClient(cfg *Config, tenant billing.Tenant, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(tenant.ID) == "" {
		return nil, ErrMissingTenantID
	}
	if !tenant.HasCredentials() {
		return nil, ErrMissingAccessToken
	}
	if !tenant.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, tenant.Mode)
	}

	c := &Client{
		baseURL:     cfg.BaseURL(tenant),
		accessToken: tenant.Credentials.AccessToken,
		tenantID:    tenant.ID,
		pageSize:    cfg.PageSize,
		userAgent:   cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListPayments fetches one page of payments matching filter.
// Failures are returned as *ProviderError; the call is never retried.
func (c *Client) ListPayments(ctx context.Context, filter PaymentFilter) (*PaymentPage, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = DefaultSyncStatuses
	}
	limit := filter.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = c.pageSize
	}

	ctx, span := c.tracer.Start(ctx, "gateway.ListPayments",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tenant.id", c.tenantID),
			attribute.String("gateway.statuses", strings.Join(statuses, ",")),
			attribute.Int("gateway.limit", limit),
		),
	)
	defer span.End()

	query := url.Values{}
	query.Set("status", strings.Join(statuses, ","))
	query.Set("limit", strconv.Itoa(limit))

	observedAt := c.now()
	body, err := c.doRequest(ctx, http.MethodGet, "/payments", query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var resp paymentListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		perr := newProviderError(ProviderErrorMalformed, http.StatusOK, fmt.Errorf("decode payments: %w", err))
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		return nil, perr
	}
	if resp.Data == nil {
		perr := newProviderError(ProviderErrorMalformed, http.StatusOK, errors.New("response has no data field"))
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		return nil, perr
	}

	payments := make([]PaymentPayload, len(resp.Data))
	for i, raw := range resp.Data {
		if err := json.Unmarshal(raw, &payments[i]); err != nil {
			perr := newProviderError(ProviderErrorMalformed, http.StatusOK, fmt.Errorf("decode payment %d: %w", i, err))
			span.RecordError(perr)
			span.SetStatus(codes.Error, perr.Error())
			return nil, perr
		}
		payments[i].Raw = raw
	}

	span.SetAttributes(attribute.Int("gateway.fetched", len(payments)))
	return &PaymentPage{
		Payments:   payments,
		HasMore:    resp.HasMore,
		TotalCount: resp.TotalCount,
		ObservedAt: observedAt,
	}, nil
}

// doRequest performs the HTTP call and classifies transport and status failures
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, newProviderError(ProviderErrorUnavailable, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("access_token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newProviderError(ProviderErrorUnavailable, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, newProviderError(ProviderErrorUnavailable, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, resp.Status)
	}
	return body, nil
}
