package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
	exporters  = []string{"stdout", "otlp"}
	drivers    = []string{DriverMemory, DriverFile, DriverSQLite, DriverPostgres}
)

// problems collects every invalid setting so one run reports them all.
type problems []error

// require records the formatted message when ok is false.
func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Errorf(format, args...))
	}
}

func (p *problems) oneOf(key, got string, allowed []string) {
	p.require(slices.Contains(allowed, got), "%s must be one of %v, got %q", key, allowed, got)
}

// Validate reports every invalid setting in c, joined.
func (c *Config) Validate() error {
	var p problems
	c.Server.check(&p)
	c.Log.check(&p)
	c.Telemetry.check(&p)
	c.Store.check(&p)
	c.Events.check(&p)
	c.Client.check(&p)
	return errors.Join(p...)
}

func (s *ServerConfig) check(p *problems) {
	p.require(s.Port >= 1 && s.Port <= 65535, "server.port must be between 1 and 65535, got %d", s.Port)
	p.require(s.ReadTimeout > 0, "server.read_timeout must be positive, got %s", s.ReadTimeout)
	p.require(s.WriteTimeout > 0, "server.write_timeout must be positive, got %s", s.WriteTimeout)
	p.require(s.RequestTimeout > 0 && s.RequestTimeout < s.WriteTimeout,
		"server.request_timeout must be positive and below server.write_timeout (%s), got %s",
		s.WriteTimeout, s.RequestTimeout)
}

func (l *LogConfig) check(p *problems) {
	p.oneOf("log.level", l.Level, logLevels)
	p.oneOf("log.format", l.Format, logFormats)
}

func (t *TelemetryConfig) check(p *problems) {
	if !t.Enabled {
		return
	}
	p.oneOf("telemetry.exporter", t.Exporter, exporters)
	p.require(t.Exporter != "otlp" || t.Endpoint != "", "telemetry.endpoint is required for the otlp exporter")
}

func (s *StoreConfig) check(p *problems) {
	p.oneOf("store.driver", s.Driver, drivers)
	switch s.Driver {
	case DriverFile, DriverSQLite:
		p.require(s.Path != "", "store.path is required for the %s driver", s.Driver)
	case DriverPostgres:
		p.require(s.DSN != "", "store.dsn is required for the postgres driver")
	}
	p.require(s.MaxConns >= 0, "store.max_conns must be >= 0, got %d", s.MaxConns)
	p.require(s.OpTimeout >= 0, "store.op_timeout must not be negative, got %s", s.OpTimeout)
	p.require(s.Breaker.MaxFailures >= 0, "store.breaker.max_failures must be >= 0, got %d", s.Breaker.MaxFailures)
}

func (e *EventsConfig) check(p *problems) {
	if !e.Enabled {
		return
	}
	p.require(e.URL != "", "events.url is required when events are enabled")
	p.require(e.SubjectPrefix != "", "events.subject_prefix is required when events are enabled")
	p.require(e.Timeout > 0, "events.timeout must be positive, got %s", e.Timeout)
}

func (cl *ClientConfig) check(p *problems) {
	p.require(cl.BaseURL != "", "client.base_url must not be empty")
	p.require(cl.Timeout > 0, "client.timeout must be positive, got %s", cl.Timeout)
	p.require(cl.Retry.MaxAttempts >= 1, "client.retry.max_attempts must be >= 1, got %d", cl.Retry.MaxAttempts)
	p.require(cl.Retry.Multiplier > 0, "client.retry.multiplier must be positive, got %g", cl.Retry.Multiplier)
	p.require(cl.CircuitBreaker.MaxFailures >= 1,
		"client.circuit_breaker.max_failures must be >= 1, got %d", cl.CircuitBreaker.MaxFailures)

	rl := cl.RateLimit
	p.require(rl.RequestsPerSecond >= 0,
		"client.rate_limit.requests_per_second must be >= 0, got %g", rl.RequestsPerSecond)
	p.require(rl.RequestsPerSecond == 0 || rl.BurstSize >= 1,
		"client.rate_limit.burst_size must be >= 1 when rate limiting, got %d", rl.BurstSize)
}
