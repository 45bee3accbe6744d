package postgres

import (
	"context"

	"github.com/carelink/mission-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Store       ports.Store
	Requests    ports.RequestRepository
	Missions    ports.MissionRepository
	Caregivers  ports.CaregiverRepository
	Suggestions ports.SuggestionRepository
	JobRuns     ports.JobRunRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Store:       &store{db: db},
		Requests:    &requestRepository{db: db},
		Missions:    &missionRepository{db: db},
		Caregivers:  &caregiverRepository{db: db},
		Suggestions: &suggestionRepository{db: db},
		JobRuns:     &jobRunRepository{db: db},
		Outbox:      &outboxRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}

type store struct {
	db *gorm.DB
}

// WithinTx runs fn in one database transaction; any error rolls it back.
func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, ports.TxRepositories{
			Requests:    &requestRepository{db: tx},
			Missions:    &missionRepository{db: tx},
			Caregivers:  &caregiverRepository{db: tx},
			Suggestions: &suggestionRepository{db: tx},
			Outbox:      &outboxRepository{db: tx},
		})
	})
}

var (
	_ ports.RequestRepository     = (*requestRepository)(nil)
	_ ports.MissionRepository     = (*missionRepository)(nil)
	_ ports.SuggestionRepository  = (*suggestionRepository)(nil)
	_ ports.JobRunRepository      = (*jobRunRepository)(nil)
	_ ports.OutboxRepository      = (*outboxRepository)(nil)
	_ ports.IdempotencyRepository = (*idempotencyRepository)(nil)
)
