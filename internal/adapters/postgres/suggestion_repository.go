package postgres

import (
	"context"
	"errors"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type suggestionRepository struct {
	db *gorm.DB
}

func (r *suggestionRepository) Get(ctx context.Context, requestID uuid.UUID) (domain.Suggestion, bool, error) {
	var rec suggestionModel
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Suggestion{}, false, nil
		}
		return domain.Suggestion{}, false, err
	}
	return toDomainSuggestion(rec), true, nil
}

func (r *suggestionRepository) Save(ctx context.Context, suggestion domain.Suggestion) error {
	rec := suggestionModel{
		RequestID:    suggestion.RequestID,
		CaregiverIDs: joinIDs(suggestion.CaregiverIDs),
		TriggeredAt:  suggestion.TriggeredAt.UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"caregiver_ids", "triggered_at"}),
	}).Create(&rec).Error
}

func (r *suggestionRepository) Delete(ctx context.Context, requestID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&suggestionModel{}).Error
}
