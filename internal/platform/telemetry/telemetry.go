// Package telemetry sets up OpenTelemetry tracing and metrics for the
// service and todoctl, plus the Prometheus collectors for store operations
// served on /metrics.
//
//	p, err := telemetry.Init(ctx, &cfg.Telemetry)
//	defer p.Shutdown(ctx)
//	handler := middleware.OpenTelemetry(p.Metrics)
//
// With telemetry disabled Init returns empty Providers whose Metrics is nil;
// every consumer treats nil Metrics as "record nothing".
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
)

// Supported exporter names.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Metric attribute keys.
var (
	AttrHTTPMethod  = attribute.Key("http.method")
	AttrHTTPRoute   = attribute.Key("http.route")
	AttrHTTPStatus  = attribute.Key("http.status_code")
	AttrPeerService = attribute.Key("peer.service")
	AttrResult      = attribute.Key("result")
)

// Metrics holds the HTTP instruments shared by the inbound middleware and
// the outbound client.
type Metrics struct {
	ServerRequestDuration metric.Float64Histogram
	ServerRequestTotal    metric.Int64Counter
	ClientRequestDuration metric.Float64Histogram
	ClientRequestTotal    metric.Int64Counter
}

// Providers owns the SDK providers created by Init. The zero value is the
// disabled state.
type Providers struct {
	Tracer  *sdktrace.TracerProvider
	Meter   *sdkmetric.MeterProvider
	Metrics *Metrics
}

// Init builds and registers global tracer and meter providers from cfg.
// Partially created providers are shut down when a later step fails.
func Init(ctx context.Context, cfg *config.TelemetryConfig) (*Providers, error) {
	if !cfg.Enabled {
		return &Providers{}, nil
	}

	tp, err := InitTracer(ctx, cfg.ServiceName, cfg.Exporter, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	p := &Providers{Tracer: tp}

	if p.Meter, err = InitMeter(ctx, cfg.ServiceName, cfg.Exporter, cfg.Endpoint); err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}
	if p.Metrics, err = NewMetrics(p.Meter, cfg.ServiceName); err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	return p, nil
}

// Shutdown flushes and stops whichever providers exist.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// InitTracer registers a batching TracerProvider and the W3C trace-context
// and baggage propagators. The caller shuts the provider down.
func InitTracer(ctx context.Context, serviceName, exporter, endpoint string) (*sdktrace.TracerProvider, error) {
	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	exp, err := newExporter(ctx, exporter, endpoint,
		func(ctx context.Context, host string, insecure bool) (sdktrace.SpanExporter, error) {
			opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
			if insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
			return otlptracehttp.New(ctx, opts...)
		},
		func() (sdktrace.SpanExporter, error) { return stdouttrace.New(stdouttrace.WithPrettyPrint()) },
	)
	if err != nil {
		return nil, fmt.Errorf("creating span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// InitMeter registers a MeterProvider with a periodic reader. The caller
// shuts the provider down.
func InitMeter(ctx context.Context, serviceName, exporter, endpoint string) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	exp, err := newExporter(ctx, exporter, endpoint,
		func(ctx context.Context, host string, insecure bool) (sdkmetric.Exporter, error) {
			opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
			if insecure {
				opts = append(opts, otlpmetrichttp.WithInsecure())
			}
			return otlpmetrichttp.New(ctx, opts...)
		},
		func() (sdkmetric.Exporter, error) { return stdoutmetric.New() },
	)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// NewMetrics creates the HTTP instruments on a meter named after the
// service.
func NewMetrics(mp metric.MeterProvider, serviceName string) (*Metrics, error) {
	meter := mp.Meter(serviceName)

	var (
		m    Metrics
		errs []error
	)
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		if err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", name, err))
		}
		return h
	}
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{request}"))
		if err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", name, err))
		}
		return c
	}

	m.ServerRequestDuration = histogram("http.server.request.duration", "Duration of to-do API requests")
	m.ServerRequestTotal = counter("http.server.request.total", "To-do API requests served")
	m.ClientRequestDuration = histogram("http.client.request.duration", "Duration of todoctl calls to the to-do API")
	m.ClientRequestTotal = counter("http.client.request.total", "todoctl calls to the to-do API")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
}

var errEmptyEndpoint = errors.New("otlp exporter requires an endpoint")

// newExporter picks the OTLP or stdout constructor by name. OTLP endpoints
// are given as URLs; plain http selects an insecure connection.
func newExporter[E any](
	ctx context.Context,
	exporter, endpoint string,
	otlp func(ctx context.Context, host string, insecure bool) (E, error),
	stdout func() (E, error),
) (E, error) {
	var zero E
	switch exporter {
	case ExporterOTLP:
		if endpoint == "" {
			return zero, errEmptyEndpoint
		}
		host, https := parseEndpoint(endpoint)
		return otlp(ctx, host, !https)
	case ExporterStdout:
		return stdout()
	default:
		return zero, fmt.Errorf("unsupported exporter %q", exporter)
	}
}

// parseEndpoint splits "https://collector:4318" into its host:port and
// whether TLS is used. A bare host:port is returned unchanged.
func parseEndpoint(endpoint string) (host string, https bool) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, false
	}
	return u.Host, u.Scheme == "https"
}
