package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

const (
	calendarGenerationKey = "calendar:generation"
	calendarGenerationTTL = 30 * 24 * time.Hour
	schemaVersion         = "1.0"
)

func (s *Service) enqueueEvent(ctx context.Context, outbox ports.OutboxRepository, eventType string, requestID uuid.UUID, missionID *uuid.UUID, data any) error {
	occurredAt := s.nowFn()
	eventID := uuid.New()
	partitionKeyPath, partitionKey := "data.request_id", requestID.String()
	payloadEnvelope := map[string]any{
		"event_id":           eventID.String(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     schemaVersion,
		"partition_key_path": partitionKeyPath,
		"partition_key":      partitionKey,
		"data":               data,
	}
	payload, err := json.Marshal(payloadEnvelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	return outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		RequestID:        requestID,
		MissionID:        missionID,
		PartitionKey:     partitionKey,
		PartitionKeyPath: partitionKeyPath,
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    schemaVersion,
	})
}

// setRequestStatus is the only path that changes a request status. Entering
// A_REASSIGNER enqueues the reassignment event in the same transaction.
func (s *Service) setRequestStatus(ctx context.Context, tx ports.TxRepositories, req *domain.Request, status domain.RequestStatus, reason string) error {
	change := req.TransitionTo(status, s.nowFn())
	if !change.Changed {
		return nil
	}
	updated, err := tx.Requests.Update(ctx, *req)
	if err != nil {
		return err
	}
	*req = updated
	if change.EnteredReassign {
		return s.enqueueEvent(ctx, tx.Outbox, domain.EventRequestNeedsReassignment, req.RequestID, nil, domain.RequestNeedsReassignment{
			RequestID:  req.RequestID,
			FromStatus: change.From,
			Reason:     reason,
			OccurredAt: req.UpdatedAt,
		})
	}
	return nil
}

// releaseRequest puts a request back in play after its mission ended early,
// unless it already reached a final state.
func (s *Service) releaseRequest(ctx context.Context, tx ports.TxRepositories, requestID uuid.UUID, status domain.RequestStatus, reason string) error {
	req, err := tx.Requests.GetForUpdate(ctx, requestID)
	if err != nil {
		return requestLookupError(err, requestID)
	}
	if req.Status.IsTerminal() {
		return nil
	}
	return s.setRequestStatus(ctx, tx, &req, status, reason)
}

func (s *Service) bumpCalendarGeneration(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.IncrWithTTL(ctx, calendarGenerationKey, calendarGenerationTTL); err != nil {
		s.logger.WarnContext(ctx, "calendar generation bump failed",
			"module", "application.calendar",
			"layer", "application",
			"operation", "bump_generation",
			"outcome", "failure",
			"error", err,
		)
	}
}

func (s *Service) calendarGeneration(ctx context.Context) string {
	if s.cache == nil {
		return ""
	}
	raw, err := s.cache.Get(ctx, calendarGenerationKey)
	if err != nil || strings.TrimSpace(raw) == "" {
		return "0"
	}
	if _, convErr := strconv.ParseInt(raw, 10, 64); convErr != nil {
		return "0"
	}
	return raw
}

func requestLookupError(err error, requestID uuid.UUID) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCodedError(domain.ErrNotFound, domain.CodeRequestNotFound, "request %s not found", requestID)
	}
	return err
}

func missionLookupError(err error, missionID uuid.UUID) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCodedError(domain.ErrNotFound, domain.CodeMissionNotFound, "mission %s not found", missionID)
	}
	return err
}

func caregiverLookupError(err error, caregiverID uuid.UUID) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCodedError(domain.ErrNotFound, domain.CodeCaregiverNotFound, "caregiver %s not found", caregiverID)
	}
	return err
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.NewCodedError(domain.ErrInvalidInput, domain.CodeValidation, "%s must be a valid uuid", field)
	}
	return id, nil
}

func forbidden(format string, args ...any) error {
	return domain.NewCodedError(domain.ErrForbidden, domain.CodeForbidden, format, args...)
}

func requireActor(actor domain.Actor) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !domain.IsAdmin(actor) {
		return forbidden("admin access required")
	}
	return nil
}

// canManageRequest admits admins and the patient who owns the request.
func canManageRequest(actor domain.Actor, req domain.Request) bool {
	switch a := actor.(type) {
	case domain.AdminActor:
		return true
	case domain.PatientActor:
		return a.PatientID == req.PatientID
	default:
		return false
	}
}

func canReadRequest(actor domain.Actor, req domain.Request) bool {
	switch actor.(type) {
	case domain.AdminActor, domain.DoctorActor, domain.CaregiverActor:
		return true
	default:
		return canManageRequest(actor, req)
	}
}

func hashRequest(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// getIdempotent replays a completed response into out. It reserves the key when
// it is unseen and fails with ErrIdempotencyConflict on a different payload or
// a request still in flight.
func (s *Service) getIdempotent(ctx context.Context, key, requestHash string, out any) (bool, error) {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return false, nil
	}
	now := s.nowFn()
	existing, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash || existing.Status != "completed" {
			return false, domain.ErrIdempotencyConflict
		}
		if err := json.Unmarshal(existing.ResponseBody, out); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := s.idempotency.Reserve(ctx, key, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
	}
	return false, nil
}

func (s *Service) completeIdempotent(ctx context.Context, key string, code int, payload any) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.idempotency.Complete(ctx, key, code, b, s.nowFn())
}

// releaseIdempotent frees a reservation after the guarded work failed so the
// client can retry with the same key.
func (s *Service) releaseIdempotent(ctx context.Context, key string) {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return
	}
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WarnContext(ctx, "idempotency release failed",
			"module", "application.idempotency",
			"layer", "application",
			"operation", "release",
			"outcome", "failure",
			"error", err,
		)
	}
}

func parseTimestamp(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewCodedError(domain.ErrInvalidInput, domain.CodeValidation, "%s must be an RFC3339 timestamp", field)
}
