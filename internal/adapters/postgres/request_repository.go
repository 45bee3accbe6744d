package postgres

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type requestRepository struct {
	db *gorm.DB
}

func (r *requestRepository) Create(ctx context.Context, req domain.Request) error {
	rec := fromDomainRequest(req)
	if rec.Version == 0 {
		rec.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *requestRepository) Get(ctx context.Context, requestID uuid.UUID) (domain.Request, error) {
	return r.get(r.db.WithContext(ctx), requestID)
}

func (r *requestRepository) GetForUpdate(ctx context.Context, requestID uuid.UUID) (domain.Request, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), requestID)
}

func (r *requestRepository) get(db *gorm.DB, requestID uuid.UUID) (domain.Request, error) {
	var rec requestModel
	if err := db.Where("request_id = ?", requestID).Take(&rec).Error; err != nil {
		return domain.Request{}, notFoundOr(err, domain.ErrNotFound)
	}
	return toDomainRequest(rec), nil
}

func (r *requestRepository) Update(ctx context.Context, req domain.Request) (domain.Request, error) {
	rec := fromDomainRequest(req)
	rec.Version = req.Version + 1
	res := r.db.WithContext(ctx).Model(&rec).
		Where("version = ?", req.Version).
		Select("*").Omit("request_id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return domain.Request{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Request{}, r.missingOrStale(ctx, req.RequestID)
	}
	req.Version = rec.Version
	return req, nil
}

func (r *requestRepository) missingOrStale(ctx context.Context, requestID uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&requestModel{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *requestRepository) Delete(ctx context.Context, requestID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&requestModel{}).Error
}

func (r *requestRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Request, error) {
	excluded := append(terminalStatuses(), string(domain.RequestStatusAccepted))
	return r.list(r.db.WithContext(ctx).
		Where("status NOT IN ? AND desired_start < ?", excluded, now.UTC()), limit)
}

func (r *requestRepository) ListOpen(ctx context.Context, limit int) ([]domain.Request, error) {
	return r.list(r.db.WithContext(ctx).Where("status NOT IN ?", terminalStatuses()), limit)
}

func (r *requestRepository) list(db *gorm.DB, limit int) ([]domain.Request, error) {
	var rows []requestModel
	q := db.Order("desired_start asc").Order("request_id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRequest(row))
	}
	return out, nil
}

func terminalStatuses() []string {
	statuses := domain.TerminalRequestStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
