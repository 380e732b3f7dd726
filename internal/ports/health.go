package ports

import "context"

// HealthChecker is a dependency the readiness probe asks about, such as
// the to-do store or the event publisher.
type HealthChecker interface {
	// Name identifies the dependency in readiness output, as "<kind>:<impl>"
	// ("store:postgres", "events:nats").
	Name() string

	// HealthCheck returns nil when the dependency can serve requests. It
	// must return once ctx is done.
	HealthCheck(ctx context.Context) error
}

// HealthRegistry collects checkers and runs them for the readiness probe.
type HealthRegistry interface {
	// Register adds checker, replacing any checker with the same Name.
	Register(checker HealthChecker)

	// CheckAll runs every checker and returns each result by Name; nil
	// means healthy.
	CheckAll(ctx context.Context) map[string]error
}
