package monitor

import (
	"context"

	"github.com/statusboard/statusboard/internal/backend/resilience"
)

// GuardedSource wraps a Source with a circuit breaker and retries.
type GuardedSource struct {
	source Source
	guard  *resilience.Guard[[]Monitor]
}

// NewGuardedSource wraps source. The guard is registered under name when a
// registry is given.
func NewGuardedSource(source Source, cfg resilience.GuardConfig) *GuardedSource {
	return &GuardedSource{
		source: source,
		guard:  resilience.NewGuard[[]Monitor](cfg),
	}
}

// ListMonitors lists monitors through the guard.
func (s *GuardedSource) ListMonitors(ctx context.Context) ([]Monitor, error) {
	return s.guard.Execute(ctx, s.source.ListMonitors)
}

var _ Source = (*GuardedSource)(nil)
