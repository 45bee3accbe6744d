package ports

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
)

type CaregiverFilter struct {
	ValidatedOnly bool
	AvailableOnly bool
	Sexes         []domain.CaregiverSex
	Limit         int
}

type RequestRepository interface {
	Create(ctx context.Context, req domain.Request) error
	Get(ctx context.Context, requestID uuid.UUID) (domain.Request, error)
	// GetForUpdate locks the row until the surrounding transaction ends where the
	// backend supports it.
	GetForUpdate(ctx context.Context, requestID uuid.UUID) (domain.Request, error)
	// Update persists the request if its version still matches and returns it with
	// the bumped version. A stale version yields domain.ErrConflict.
	Update(ctx context.Context, req domain.Request) (domain.Request, error)
	Delete(ctx context.Context, requestID uuid.UUID) error
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Request, error)
	ListOpen(ctx context.Context, limit int) ([]domain.Request, error)
}

type MissionRepository interface {
	Create(ctx context.Context, mission domain.Mission) error
	Get(ctx context.Context, missionID uuid.UUID) (domain.Mission, error)
	GetForUpdate(ctx context.Context, missionID uuid.UUID) (domain.Mission, error)
	Update(ctx context.Context, mission domain.Mission) (domain.Mission, error)
	Delete(ctx context.Context, missionID uuid.UUID) error
	AttachReport(ctx context.Context, missionID uuid.UUID, path string, at time.Time) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Mission, error)
	CountByRequest(ctx context.Context, requestID uuid.UUID) (int64, error)

	// ListOverlapping returns the caregiver's non-archived pending or accepted
	// missions whose planned window intersects [start, end], bounds inclusive.
	ListOverlapping(ctx context.Context, caregiverID uuid.UUID, start, end time.Time) ([]domain.Mission, error)
	BusyCaregiverIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error)

	ListUnarchivedCheckedOut(ctx context.Context, limit int) ([]domain.Mission, error)
	ListCheckedInStartedBefore(ctx context.Context, before time.Time, limit int) ([]domain.Mission, error)
	ListAcceptedWithoutCheckIn(ctx context.Context, startedBefore time.Time, limit int) ([]domain.Mission, error)

	TrackRecords(ctx context.Context, caregiverIDs []uuid.UUID) (map[uuid.UUID]domain.TrackRecord, error)
}

type CaregiverRepository interface {
	Get(ctx context.Context, caregiverID uuid.UUID) (domain.Caregiver, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Caregiver, error)
	// List orders available caregivers first, then by experience descending and id.
	List(ctx context.Context, filter CaregiverFilter) ([]domain.Caregiver, error)
	Upsert(ctx context.Context, caregiver domain.Caregiver) error
}

type SuggestionRepository interface {
	Get(ctx context.Context, requestID uuid.UUID) (domain.Suggestion, bool, error)
	Save(ctx context.Context, suggestion domain.Suggestion) error
	Delete(ctx context.Context, requestID uuid.UUID) error
}

type JobRunRepository interface {
	LastRun(ctx context.Context, job string) (time.Time, bool, error)
	RecordRun(ctx context.Context, job string, at time.Time, summary string) error
}

// TxRepositories are bound to a single transaction.
type TxRepositories struct {
	Requests    RequestRepository
	Missions    MissionRepository
	Caregivers  CaregiverRepository
	Suggestions SuggestionRepository
	Outbox      OutboxRepository
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

// OutboxEvent is keyed by the request it concerns, so every event of one
// request lands on the same partition.
type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	RequestID        uuid.UUID
	MissionID        *uuid.UUID
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	RequestID    uuid.UUID
	MissionID    *uuid.UUID
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, requestID uuid.UUID, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	// Release drops a reservation that never completed. Completed records stay.
	Release(ctx context.Context, key string) error
}
