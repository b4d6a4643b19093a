package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for guarded operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// RetryConfig bounds the exponential backoff between attempts.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff interval.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	MaxInterval time.Duration
}

// DefaultRetryConfig keeps the total retry time well under a poll interval.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
	}
}

// GuardConfig holds configuration for a Guard.
type GuardConfig struct {
	// Name identifies the backend being guarded.
	Name string

	// Retry controls retries of failed attempts.
	Retry RetryConfig

	// CircuitBreaker is the breaker configuration. If nil, uses
	// DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Retryable reports whether an error is worth another attempt.
	// If nil, every error except context cancellation is retried.
	Retryable func(error) bool

	// Registry, if set, receives the guard and its success/failure records.
	Registry *Registry
}

// Guard runs calls through a circuit breaker, retrying transient failures.
type Guard[T any] struct {
	name      string
	breaker   *gobreaker.CircuitBreaker[T]
	retry     RetryConfig
	retryable func(error) bool
	registry  *Registry
}

// NewGuard creates a guard and registers it with cfg.Registry if provided.
func NewGuard[T any](cfg GuardConfig) *Guard[T] {
	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	retryable := cfg.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	g := &Guard[T]{
		name:      cfg.Name,
		breaker:   NewCircuitBreaker[T](cbConfig),
		retry:     cfg.Retry,
		retryable: retryable,
		registry:  cfg.Registry,
	}

	if g.registry != nil {
		g.registry.Register(cfg.Name, g)
	}

	return g
}

// Name returns the backend name.
func (g *Guard[T]) Name() string {
	return g.name
}

// State returns the current state of the circuit breaker.
func (g *Guard[T]) State() gobreaker.State {
	return g.breaker.State()
}

// Counts returns the current counts of the circuit breaker.
func (g *Guard[T]) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}

// Execute runs fn through the breaker with retries. It returns ErrCircuitOpen
// without calling fn when the breaker rejects the call.
func (g *Guard[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	if g.retry.InitialInterval > 0 {
		bo.InitialInterval = g.retry.InitialInterval
	}
	if g.retry.MaxInterval > 0 {
		bo.MaxInterval = g.retry.MaxInterval
	}
	bo.MaxElapsedTime = 0 // bounded by MaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, g.retry.MaxRetries), ctx)

	var result T
	operation := func() error {
		res, err := g.breaker.Execute(func() (T, error) {
			return fn(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil || !g.retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	err := backoff.Retry(operation, policy)
	if g.registry != nil {
		if err != nil {
			g.registry.RecordFailure(g.name, err)
		} else {
			g.registry.RecordSuccess(g.name)
		}
	}

	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
