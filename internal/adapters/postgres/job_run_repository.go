package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRunRepository struct {
	db *gorm.DB
}

func (r *jobRunRepository) LastRun(ctx context.Context, job string) (time.Time, bool, error) {
	var rec jobRunModel
	if err := r.db.WithContext(ctx).Where("job_name = ?", job).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return rec.LastRunAt.UTC(), true, nil
}

func (r *jobRunRepository) RecordRun(ctx context.Context, job string, at time.Time, summary string) error {
	rec := jobRunModel{JobName: job, LastRunAt: at.UTC(), Summary: summary}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_at", "summary"}),
	}).Create(&rec).Error
}
