package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Refresher is the part of the aggregator the worker drives. CheckNow must
// run on the refresh loop so a health check never overlaps a scheduled fetch.
type Refresher interface {
	Trigger()
	CheckNow(ctx context.Context) error
}

// JobMessage is the payload of a worker message.
type JobMessage struct {
	JobType string `json:"job_type"`
	Reason  string `json:"reason,omitempty"`
}

// Outcome tells the transport what to do with a message.
type Outcome int

// Message outcomes.
const (
	Ack Outcome = iota
	Nack
)

func (o Outcome) String() string {
	if o == Nack {
		return "nack"
	}
	return "ack"
}

// Dispatcher decodes job messages and runs them against a Refresher.
type Dispatcher struct {
	refresher          Refresher
	healthCheckTimeout time.Duration
	logger             zerolog.Logger
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses the default.
func NewDispatcher(refresher Refresher, healthCheckTimeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if healthCheckTimeout <= 0 {
		healthCheckTimeout = DefaultConfig().HealthCheckTimeout
	}
	return &Dispatcher{
		refresher:          refresher,
		healthCheckTimeout: healthCheckTimeout,
		logger:             logger,
	}
}

// Dispatch handles one message body. Malformed payloads and failed jobs are
// nacked; unknown job types are acked so they are not redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) Outcome {
	log := d.log(ctx)

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Msg("failed to parse message")
		return Nack
	}

	var err error
	switch msg.JobType {
	case JobMonitorRefresh:
		log.Debug().Str("reason", msg.Reason).Msg("refresh requested")
		d.refresher.Trigger()
	case JobHealthCheck:
		err = d.healthCheck(ctx)
	default:
		log.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return Ack
	}

	if err != nil {
		log.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return Nack
	}

	return Ack
}

// log prefers a message-scoped logger attached to ctx.
func (d *Dispatcher) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &d.logger
}

func (d *Dispatcher) healthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.healthCheckTimeout)
	defer cancel()

	if err := d.refresher.CheckNow(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	d.log(ctx).Debug().Msg("health check passed")
	return nil
}
