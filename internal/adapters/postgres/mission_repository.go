package postgres

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type missionRepository struct {
	db *gorm.DB
}

func (r *missionRepository) Create(ctx context.Context, mission domain.Mission) error {
	rec := fromDomainMission(mission)
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

func (r *missionRepository) Get(ctx context.Context, missionID uuid.UUID) (domain.Mission, error) {
	return r.get(r.db.WithContext(ctx), missionID)
}

func (r *missionRepository) GetForUpdate(ctx context.Context, missionID uuid.UUID) (domain.Mission, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), missionID)
}

func (r *missionRepository) get(db *gorm.DB, missionID uuid.UUID) (domain.Mission, error) {
	var rec missionModel
	if err := db.Where("mission_id = ?", missionID).Take(&rec).Error; err != nil {
		return domain.Mission{}, notFoundOr(err, domain.ErrNotFound)
	}
	return toDomainMission(rec), nil
}

func (r *missionRepository) Update(ctx context.Context, mission domain.Mission) (domain.Mission, error) {
	rec := fromDomainMission(mission)
	rec.Version = mission.Version + 1
	res := r.db.WithContext(ctx).Model(&rec).
		Where("version = ?", mission.Version).
		Select("*").Omit("mission_id", "created_at", "pdf_generated_at").
		Updates(rec)
	if res.Error != nil {
		return domain.Mission{}, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&missionModel{}).Where("mission_id = ?", mission.MissionID).Count(&count).Error; err != nil {
			return domain.Mission{}, err
		}
		if count == 0 {
			return domain.Mission{}, domain.ErrNotFound
		}
		return domain.Mission{}, domain.ErrConflict
	}
	mission.Version = rec.Version
	return mission, nil
}

func (r *missionRepository) Delete(ctx context.Context, missionID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("mission_id = ?", missionID).Delete(&missionModel{}).Error
}

// AttachReport leaves the version untouched.
func (r *missionRepository) AttachReport(ctx context.Context, missionID uuid.UUID, path string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&missionModel{}).
		Where("mission_id = ?", missionID).
		Updates(map[string]any{
			"pdf_file_path":    path,
			"pdf_generated_at": at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *missionRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Mission, error) {
	return r.list(r.db.WithContext(ctx).Where("request_id = ?", requestID), 0)
}

func (r *missionRepository) CountByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&missionModel{}).Where("request_id = ?", requestID).Count(&count).Error
	return count, err
}

// activeOverlap selects non-archived pending or accepted missions whose planned
// window meets [start, end]. A missing end collapses the window to its start.
func activeOverlap(db *gorm.DB, start, end time.Time) *gorm.DB {
	return db.Where("final_status IS NULL AND status IN ?", activeMissionStatuses()).
		Where("starts_at IS NOT NULL AND starts_at <= ? AND COALESCE(ends_at, starts_at) >= ?", end.UTC(), start.UTC())
}

func (r *missionRepository) ListOverlapping(ctx context.Context, caregiverID uuid.UUID, start, end time.Time) ([]domain.Mission, error) {
	return r.list(activeOverlap(r.db.WithContext(ctx), start, end).Where("caregiver_id = ?", caregiverID), 0)
}

func (r *missionRepository) BusyCaregiverIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := activeOverlap(r.db.WithContext(ctx).Model(&missionModel{}), start, end).
		Where("caregiver_id IS NOT NULL").
		Distinct().
		Pluck("caregiver_id", &ids).Error
	return ids, err
}

func (r *missionRepository) ListUnarchivedCheckedOut(ctx context.Context, limit int) ([]domain.Mission, error) {
	return r.list(r.db.WithContext(ctx).Where("final_status IS NULL AND check_out_at IS NOT NULL"), limit)
}

func (r *missionRepository) ListCheckedInStartedBefore(ctx context.Context, before time.Time, limit int) ([]domain.Mission, error) {
	return r.list(r.db.WithContext(ctx).
		Where("final_status IS NULL AND check_in_at IS NOT NULL AND check_out_at IS NULL").
		Where("starts_at IS NOT NULL AND starts_at < ?", before.UTC()), limit)
}

func (r *missionRepository) ListAcceptedWithoutCheckIn(ctx context.Context, startedBefore time.Time, limit int) ([]domain.Mission, error) {
	return r.list(r.db.WithContext(ctx).
		Where("final_status IS NULL AND status = ? AND check_in_at IS NULL", string(domain.MissionStatusAccepted)).
		Where("starts_at IS NOT NULL AND starts_at < ?", startedBefore.UTC()), limit)
}

type trackRecordRow struct {
	CaregiverID uuid.UUID `gorm:"column:caregiver_id"`
	Total       int       `gorm:"column:total"`
	Completed   int       `gorm:"column:completed"`
	Failed      int       `gorm:"column:failed"`
	Suspicious  int       `gorm:"column:suspicious"`
}

func (r *missionRepository) TrackRecords(ctx context.Context, caregiverIDs []uuid.UUID) (map[uuid.UUID]domain.TrackRecord, error) {
	out := make(map[uuid.UUID]domain.TrackRecord, len(caregiverIDs))
	if len(caregiverIDs) == 0 {
		return out, nil
	}
	var rows []trackRecordRow
	err := r.db.WithContext(ctx).Model(&missionModel{}).
		Select(
			"caregiver_id, COUNT(*) AS total, "+
				"SUM(CASE WHEN final_status = ? THEN 1 ELSE 0 END) AS completed, "+
				"SUM(CASE WHEN final_status IN ? THEN 1 ELSE 0 END) AS failed, "+
				"SUM(CASE WHEN status_verification = ? THEN 1 ELSE 0 END) AS suspicious",
			string(domain.FinalStatusCompleted),
			[]string{string(domain.FinalStatusCancelled), string(domain.FinalStatusExpired)},
			string(domain.VerificationSuspect),
		).
		Where("caregiver_id IN ?", caregiverIDs).
		Group("caregiver_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CaregiverID] = domain.TrackRecord{
			Total: row.Total, Completed: row.Completed, Failed: row.Failed, Suspicious: row.Suspicious,
		}
	}
	return out, nil
}

func (r *missionRepository) list(db *gorm.DB, limit int) ([]domain.Mission, error) {
	var rows []missionModel
	q := db.Order("created_at asc").Order("mission_id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Mission, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainMission(row))
	}
	return out, nil
}

func activeMissionStatuses() []string {
	return []string{string(domain.MissionStatusPending), string(domain.MissionStatusAccepted)}
}
