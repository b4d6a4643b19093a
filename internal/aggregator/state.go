package aggregator

import (
	"context"
	"errors"
	"time"

	"github.com/statusboard/statusboard/internal/monitor"
)

// Aggregator errors.
var (
	ErrAlreadyRunning = errors.New("aggregator already running")
	ErrStopped        = errors.New("aggregator is not running")
)

// State is a published snapshot together with the stats derived from it.
// A State is never modified after it has been published.
type State struct {
	Snapshot    []monitor.Monitor
	Stats       monitor.Stats
	RefreshedAt time.Time
	Generation  uint64
}

// Sink receives every published state, for example to mirror it elsewhere.
type Sink interface {
	Publish(ctx context.Context, state *State) error
}

// FetchError reports a failed snapshot retrieval.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetching snapshot: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Health describes the refresh loop.
type Health struct {
	Running             bool
	Generation          uint64
	LastAttemptAt       time.Time
	LastSuccessAt       time.Time
	LastFailureAt       time.Time
	LastError           string
	ConsecutiveFailures int
	TotalRefreshes      int64
	FailedRefreshes     int64
	RejectedRows        int
}

// IsStale reports whether no refresh has succeeded within maxAge of now.
func (h Health) IsStale(now time.Time, maxAge time.Duration) bool {
	return h.LastSuccessAt.IsZero() || now.Sub(h.LastSuccessAt) > maxAge
}
