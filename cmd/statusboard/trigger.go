package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/worker"
)

// publishTrigger sends a monitor_refresh job to every subscribed instance.
func publishTrigger(ctx context.Context, args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	reason := fs.String("reason", "manual", "reason recorded with the job")
	timeout := fs.Duration("timeout", 30*time.Second, "publish timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := worker.ConfigFromEnv()
	if cfg.ProjectID == "" {
		return errors.New("PUBSUB_PROJECT_ID is required")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	id, err := worker.PublishRefresh(ctx, cfg, *reason)
	if err != nil {
		return err
	}

	log.Info().
		Str("message_id", id).
		Str("topic", cfg.TopicName).
		Str("reason", *reason).
		Msg("refresh job published")
	return nil
}
