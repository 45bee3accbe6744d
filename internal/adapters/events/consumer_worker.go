package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/carelink/mission-service/internal/domain"
)

type EventHandler interface {
	HandleCanonicalEvent(ctx context.Context, eventType string, payload []byte) error
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  EventHandler
	interval time.Duration
	batch    int

	maxAttempts int
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler EventHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger:   logger,
		consumer: consumer,
		handler:  handler,
		interval: interval,
		batch:    50,

		maxAttempts: 5,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce handles one polled batch. A failed message is requeued until it has
// been attempted maxAttempts times; malformed payloads are dropped at once.
func (w *ConsumerWorker) RunOnce(ctx context.Context) (int, error) {
	msgs, err := w.consumer.Poll(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	handled := 0
	for _, msg := range msgs {
		eventType := envelopeType(msg)
		err := w.handler.HandleCanonicalEvent(ctx, eventType, msg.Payload)
		if err == nil {
			if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
				return handled, ackErr
			}
			handled++
			continue
		}

		attempt := msg.Attempts + 1
		if errors.Is(err, domain.ErrInvalidInput) || attempt >= w.maxAttempts {
			w.logger.ErrorContext(ctx, "dropping event",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "handle_event",
				"outcome", "dropped",
				"event_type", eventType,
				"topic", msg.Topic,
				"attempt", attempt,
				"error", err,
			)
			if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
				return handled, ackErr
			}
			continue
		}
		w.logger.WarnContext(ctx, "failed to handle event, will retry",
			"module", "events.consumer_worker",
			"layer", "adapter",
			"operation", "handle_event",
			"outcome", "retry",
			"event_type", eventType,
			"topic", msg.Topic,
			"attempt", attempt,
			"error", err,
		)
		if reqErr := w.consumer.Requeue(ctx, msg); reqErr != nil {
			return handled, reqErr
		}
	}
	return handled, nil
}

func envelopeType(msg Message) string {
	var probe struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(msg.Payload, &probe); err == nil && probe.EventType != "" {
		return probe.EventType
	}
	return msg.Topic
}
