// Package aggregator keeps a monitor snapshot and its aggregate stats fresh
// by polling a data source on a fixed interval.
package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/monitor"
)

// AggregatorConfig holds the dependencies for creating an Aggregator.
type AggregatorConfig struct {
	Config  Config
	Source  monitor.Source
	Logger  zerolog.Logger
	Metrics *Metrics
	Sinks   []Sink

	// Now overrides the clock used for timestamps. Default: time.Now
	Now func() time.Time
}

// Aggregator polls a monitor source and publishes (snapshot, stats) pairs.
//
// Refreshes never overlap: the next tick is scheduled only after the
// previous fetch has finished. A failed fetch leaves the last published
// state in place. After Stop returns no fetch is started and no state is
// published, including the result of a fetch that was in flight.
type Aggregator struct {
	cfg     Config
	source  monitor.Source
	logger  zerolog.Logger
	metrics *Metrics
	sinks   []Sink
	now     func() time.Time

	state   atomic.Pointer[State]
	trigger chan struct{}
	checks  chan chan error

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	health      Health
	subscribers map[int]chan *State
	nextSubID   int
}

// New creates an Aggregator. It does not start polling; call Start.
func New(cfg AggregatorConfig) *Aggregator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Aggregator{
		cfg:         cfg.Config.withDefaults(),
		source:      cfg.Source,
		logger:      cfg.Logger.With().Str("component", "aggregator").Logger(),
		metrics:     cfg.Metrics,
		sinks:       cfg.Sinks,
		now:         now,
		trigger:     make(chan struct{}, 1),
		checks:      make(chan chan error),
		subscribers: make(map[int]chan *State),
	}
}

// FetchSnapshot retrieves the current monitors from the source, drops rows
// that fail validation and returns them in display order. Source failures
// are returned as *FetchError. It does not touch the loop state; use
// CheckNow for a refresh that is serialised with the loop.
func (a *Aggregator) FetchSnapshot(ctx context.Context) ([]monitor.Monitor, error) {
	snapshot, _, err := a.fetch(ctx)
	return snapshot, err
}

func (a *Aggregator) fetch(ctx context.Context) ([]monitor.Monitor, int, error) {
	raw, err := a.source.ListMonitors(ctx)
	if err != nil {
		return nil, 0, &FetchError{Err: err}
	}

	snapshot, invalid := monitor.Sanitize(raw)
	if len(invalid) > 0 {
		a.logger.Warn().
			Int("rejected", len(invalid)).
			Err(invalid[0]).
			Msg("dropped invalid monitor rows")
	}

	monitor.SortSnapshot(snapshot)
	return snapshot, len(invalid), nil
}

// ComputeStats derives aggregate stats from a snapshot.
func ComputeStats(snapshot []monitor.Monitor) monitor.Stats {
	return monitor.ComputeStats(snapshot)
}

// Start launches the refresh loop. The first refresh runs immediately.
// The loop runs until Stop is called or ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		return ErrAlreadyRunning
	}

	// A trigger left over from before Start would only duplicate the
	// initial refresh.
	select {
	case <-a.trigger:
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.health.Running = true

	a.logger.Info().
		Dur("interval", a.cfg.Interval).
		Dur("fetch_timeout", a.cfg.FetchTimeout).
		Msg("starting refresh loop")

	go a.run(loopCtx, done)
	return nil
}

// Stop cancels the pending tick and any in-flight fetch, then waits for the
// loop to exit. Calling Stop on a stopped aggregator is a no-op.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	if done == nil {
		a.mu.Unlock()
		return
	}
	// Cancelling under mu orders this against publish.
	cancel()
	a.cancel = nil
	a.done = nil
	a.health.Running = false
	a.mu.Unlock()

	<-done
	a.logger.Info().Msg("refresh loop stopped")
}

// Trigger requests a refresh ahead of the next tick. Requests made while a
// refresh is running collapse into a single follow-up refresh.
func (a *Aggregator) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// CheckNow runs a refresh on the loop goroutine and returns its error. It
// waits for any refresh already in flight, so at most one fetch runs at a
// time. It returns ErrStopped when the loop is not running or stops before
// the refresh completes.
func (a *Aggregator) CheckNow(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return ErrStopped
	}

	result := make(chan error, 1)
	select {
	case a.checks <- result:
	case <-done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the latest published state, or nil before the first
// successful refresh.
func (a *Aggregator) Current() *State {
	return a.state.Load()
}

// Health returns a copy of the loop health.
func (a *Aggregator) Health() Health {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// Subscribe returns a channel that always holds the most recent state not
// yet received; older undelivered states are dropped. The current state, if
// any, is delivered first. The returned func unsubscribes and closes the channel.
func (a *Aggregator) Subscribe() (<-chan *State, func()) {
	ch := make(chan *State, 1)

	a.mu.Lock()
	id := a.nextSubID
	a.nextSubID++
	a.subscribers[id] = ch
	if current := a.state.Load(); current != nil {
		ch <- current
	}
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subscribers, id)
			a.mu.Unlock()
			close(ch)
		})
	}
}

func (a *Aggregator) run(ctx context.Context, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		if a.done == done {
			a.cancel = nil
			a.done = nil
			a.health.Running = false
		}
		a.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		var reply chan error
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-a.trigger:
			timer.Stop()
		case reply = <-a.checks:
			timer.Stop()
		}

		err := a.refresh(ctx)
		if reply != nil {
			reply <- err
		}
		timer.Reset(a.cfg.Interval)
	}
}

// refresh fetches and publishes one snapshot. It returns ErrStopped when the
// loop was stopped before the result could be published.
func (a *Aggregator) refresh(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrStopped
	}

	start := a.now()
	a.mu.Lock()
	a.health.LastAttemptAt = start
	a.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	snapshot, rejected, err := a.fetch(fetchCtx)
	cancel()

	if ctx.Err() != nil {
		a.logger.Debug().Msg("discarding refresh result after stop")
		return ErrStopped
	}

	a.metrics.recordRefresh(ctx, a.now().Sub(start), err)

	if err != nil {
		a.recordFailure(err)
		return err
	}

	state := &State{
		Snapshot:    snapshot,
		Stats:       ComputeStats(snapshot),
		RefreshedAt: a.now(),
	}

	if !a.publish(ctx, state, rejected) {
		return ErrStopped
	}

	a.metrics.recordStats(ctx, state.Stats)

	a.logger.Debug().
		Uint64("generation", state.Generation).
		Int("total", state.Stats.Total).
		Int("critical", state.Stats.CriticalCount).
		Int("warning", state.Stats.WarningCount).
		Float64("average_uptime", state.Stats.AverageUptime).
		Msg("snapshot refreshed")

	for _, sink := range a.sinks {
		if err := sink.Publish(ctx, state); err != nil {
			a.logger.Warn().Err(err).Msg("failed to publish state to sink")
		}
	}
	return nil
}

// publish replaces the current state and notifies subscribers. It reports
// false, publishing nothing, once the loop has been stopped. rejected is the
// number of rows dropped while building state.
func (a *Aggregator) publish(ctx context.Context, state *State, rejected int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	a.health.Generation++
	state.Generation = a.health.Generation
	a.state.Store(state)

	a.health.TotalRefreshes++
	a.health.LastSuccessAt = state.RefreshedAt
	a.health.LastError = ""
	a.health.ConsecutiveFailures = 0
	a.health.RejectedRows = rejected

	for _, ch := range a.subscribers {
		select {
		case ch <- state:
		default:
			// Replace the undelivered state; we are the only sender.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}

	return true
}

func (a *Aggregator) recordFailure(err error) {
	a.mu.Lock()
	a.health.TotalRefreshes++
	a.health.FailedRefreshes++
	a.health.ConsecutiveFailures++
	a.health.LastFailureAt = a.now()
	a.health.LastError = err.Error()
	failures := a.health.ConsecutiveFailures
	a.mu.Unlock()

	event := a.logger.Warn()
	if failures >= 3 {
		event = a.logger.Error()
	}
	event.
		Err(err).
		Int("consecutive_failures", failures).
		Msg("monitor refresh failed, keeping last snapshot")
}
