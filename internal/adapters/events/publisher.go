package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/carelink/mission-service/internal/ports"
)

// LoggingPublisher records every relayed care event with the request and
// mission it concerns, then hands it to the broker.
type LoggingPublisher struct {
	logger *slog.Logger
	next   ports.EventPublisher
}

func NewLoggingPublisher(logger *slog.Logger, next ports.EventPublisher) *LoggingPublisher {
	return &LoggingPublisher{logger: logger, next: next}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	attrs := []any{
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"event_type", eventType,
		"request_id", partitionKey,
	}
	var envelope struct {
		EventID string `json:"event_id"`
		Data    struct {
			MissionID          string `json:"mission_id"`
			StatusVerification string `json:"status_verification"`
			FromStatus         string `json:"from_status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		attrs = append(attrs, "event_id", envelope.EventID)
		if envelope.Data.MissionID != "" {
			attrs = append(attrs, "mission_id", envelope.Data.MissionID)
		}
		if envelope.Data.StatusVerification != "" {
			attrs = append(attrs, "status_verification", envelope.Data.StatusVerification)
		}
		if envelope.Data.FromStatus != "" {
			attrs = append(attrs, "from_status", envelope.Data.FromStatus)
		}
	}

	if p.next != nil {
		if err := p.next.Publish(ctx, eventType, payload, partitionKey); err != nil {
			p.logger.WarnContext(ctx, "care event publish failed", append(attrs, "outcome", "failure", "error", err)...)
			return err
		}
	}
	p.logger.InfoContext(ctx, "care event published", append(attrs, "outcome", "success")...)
	return nil
}
