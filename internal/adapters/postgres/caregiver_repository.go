package postgres

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type caregiverRepository struct {
	db *gorm.DB
}

func (r *caregiverRepository) Get(ctx context.Context, caregiverID uuid.UUID) (domain.Caregiver, error) {
	var rec caregiverModel
	if err := r.db.WithContext(ctx).Where("caregiver_id = ?", caregiverID).Take(&rec).Error; err != nil {
		return domain.Caregiver{}, notFoundOr(err, domain.ErrNotFound)
	}
	return toDomainCaregiver(rec), nil
}

func (r *caregiverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Caregiver, error) {
	var rec caregiverModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		return domain.Caregiver{}, notFoundOr(err, domain.ErrNotFound)
	}
	return toDomainCaregiver(rec), nil
}

func (r *caregiverRepository) List(ctx context.Context, filter ports.CaregiverFilter) ([]domain.Caregiver, error) {
	q := r.db.WithContext(ctx).Model(&caregiverModel{})
	if filter.ValidatedOnly {
		q = q.Where("validated = ?", true)
	}
	if filter.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	if len(filter.Sexes) > 0 {
		sexes := make([]string, 0, len(filter.Sexes))
		for _, s := range filter.Sexes {
			sexes = append(sexes, string(s))
		}
		q = q.Where("sex IN ?", sexes)
	}
	q = q.Order("available desc").Order("experience_level desc").Order("caregiver_id asc")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []caregiverModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Caregiver, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCaregiver(row))
	}
	return out, nil
}

func (r *caregiverRepository) Upsert(ctx context.Context, caregiver domain.Caregiver) error {
	rec := caregiverModel{
		CaregiverID: caregiver.CaregiverID, UserID: caregiver.UserID, DisplayName: caregiver.DisplayName,
		Validated: caregiver.Validated, Available: caregiver.Available, ExperienceLevel: caregiver.ExperienceLevel,
		MinRate: caregiver.MinRate, City: caregiver.City, InterventionRadiusKm: caregiver.InterventionRadiusKm,
		AcceptedPatientTypes: caregiver.AcceptedPatientTypes, Sex: string(caregiver.Sex),
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "caregiver_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

var _ ports.CaregiverRepository = (*caregiverRepository)(nil)
