package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/billsync/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that matched no route, keeping raw paths
// out of metric attributes.
const unmatchedRoute = "unknown"

type requestInstruments struct {
	total    *telemetry.Counter
	duration *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

// HTTPMetrics returns a middleware counting requests per route, status and
// tenant, and recording latency per route and status class. A nil meter
// yields a pass-through middleware.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}

	var (
		inst requestInstruments
		err  error
	)
	if inst.total, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if inst.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency, from webhook acknowledgements to synchronous sync runs",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if inst.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}

	return inst.handle, nil
}

func (inst *requestInstruments) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	inst.inFlight.Add(ctx, 1)
	defer inst.inFlight.Add(ctx, -1)

	c.Next()

	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	status := c.Writer.Status()
	method := telemetry.AttrHTTPMethod.String(c.Request.Method)
	routeAttr := telemetry.AttrHTTPRoute.String(route)

	attrs := []attribute.KeyValue{method, routeAttr, telemetry.AttrHTTPStatusCode.Int(status)}
	if tenant := c.Query(TenantQueryParam); tenant != "" && len(tenant) <= MaxTenantIDLength {
		attrs = append(attrs, telemetry.AttrTenantID.String(tenant))
	}
	inst.total.Inc(ctx, attrs...)
	inst.duration.RecordDuration(ctx, time.Since(start), method, routeAttr, statusClass(status))
}

// statusClass buckets a status code as 2xx, 4xx and so on
func statusClass(status int) attribute.KeyValue {
	return attribute.String("http.status_class", strconv.Itoa(status/100)+"xx")
}
