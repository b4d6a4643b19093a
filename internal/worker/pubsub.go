package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	Config     Config
	Dispatcher *Dispatcher
	Logger     zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.Config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.Config.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = cfg.Config.MaxOutstandingMessages
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.Config.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger.With().Str("component", "pubsub").Logger(),
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, h.handleMessage)
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()
	log := h.logger.With().
		Str("message_id", msg.ID).
		Int("delivery_attempt", deliveryAttempt(msg)).
		Logger()

	outcome := h.dispatcher.Dispatch(log.WithContext(ctx), msg.Data)
	log.Info().
		Stringer("outcome", outcome).
		Dur("duration", time.Since(start)).
		Dur("queue_delay", start.Sub(msg.PublishTime)).
		Msg("message handled")

	switch outcome {
	case Nack:
		msg.Nack()
	default:
		msg.Ack()
	}
}

// deliveryAttempt is 0 unless the subscription has a dead letter policy.
func deliveryAttempt(msg *pubsub.Message) int {
	if msg.DeliveryAttempt == nil {
		return 0
	}
	return *msg.DeliveryAttempt
}

// PublishRefresh publishes a monitor_refresh job to the configured topic and
// waits for the server to accept it.
func PublishRefresh(ctx context.Context, cfg Config, reason string) (string, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return "", fmt.Errorf("creating pubsub client: %w", err)
	}
	defer client.Close()

	data, err := json.Marshal(JobMessage{JobType: JobMonitorRefresh, Reason: reason})
	if err != nil {
		return "", err
	}

	publisher := client.Publisher(cfg.TopicName)
	defer publisher.Stop()

	id, err := publisher.Publish(ctx, &pubsub.Message{Data: data}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing refresh job: %w", err)
	}

	return id, nil
}
