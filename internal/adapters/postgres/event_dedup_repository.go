package postgres

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventDedupRepository remembers consumed event ids together with the request
// they triggered work for.
type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var rows []eventDedupModel
	err := r.db.WithContext(ctx).
		Select("event_id").
		Where("event_id = ? AND expires_at > ?", eventID, now.UTC()).
		Limit(1).
		Find(&rows).Error
	return len(rows) > 0, err
}

// MarkProcessed upserts so an expired entry for a redelivered id is renewed.
func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, requestID uuid.UUID, expiresAt time.Time) error {
	rec := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		RequestID:   requestID,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"event_type", "request_id", "processed_at", "expires_at"}),
	}).Create(&rec).Error
}

var _ ports.EventDedupRepository = (*eventDedupRepository)(nil)
