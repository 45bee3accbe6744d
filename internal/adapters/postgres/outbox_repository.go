package postgres

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Rows that failed this many times stay in mission_outbox for an operator
	// and are no longer relayed.
	outboxMaxAttempts = 25
	outboxErrorMaxLen = 512
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, event ports.OutboxEvent) error {
	occurredAt := event.OccurredAt.UTC()
	schemaVersion := event.SchemaVersion
	if schemaVersion == "" {
		schemaVersion = "v1"
	}
	return r.db.WithContext(ctx).Create(&outboxModel{
		OutboxID:         event.EventID,
		EventType:        event.EventType,
		RequestID:        event.RequestID,
		MissionID:        event.MissionID,
		PartitionKey:     event.PartitionKey,
		PartitionKeyPath: event.PartitionKeyPath,
		Payload:          string(event.Payload),
		SchemaVersion:    schemaVersion,
		TraceID:          event.TraceID,
		CreatedAt:        occurredAt,
		FirstSeenAt:      occurredAt,
	}).Error
}

// FetchUnpublished returns relayable rows oldest first. Rows past
// outboxMaxAttempts are skipped.
func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND retry_count < ?", outboxMaxAttempts).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOutboxRecord(row))
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ? AND published_at IS NULL", outboxID).
		Update("published_at", at.UTC()).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	if len(errMsg) > outboxErrorMaxLen {
		errMsg = errMsg[:outboxErrorMaxLen]
	}
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    errMsg,
			"last_error_at": at.UTC(),
		}).Error
}
