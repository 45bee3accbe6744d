package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

func (s *Service) CreateRequest(ctx context.Context, actor domain.Actor, idempotencyKey string, input CreateRequestInput) (RequestView, error) {
	if err := requireActor(actor); err != nil {
		return RequestView{}, err
	}
	var patientID uuid.UUID
	switch a := actor.(type) {
	case domain.PatientActor:
		patientID = a.PatientID
	case domain.AdminActor:
		parsed, err := parseID(input.PatientID, "patientId")
		if err != nil {
			return RequestView{}, err
		}
		patientID = parsed
	default:
		return RequestView{}, forbidden("only patients can create help requests")
	}

	requestType, err := domain.ParseRequestType(input.Type)
	if err != nil {
		return RequestView{}, err
	}
	sexPreference, err := domain.ParseSexPreference(input.SexPreference)
	if err != nil {
		return RequestView{}, err
	}
	start, err := parseTimestamp(input.DesiredStart, "desiredStart")
	if err != nil {
		return RequestView{}, err
	}
	var end *time.Time
	if strings.TrimSpace(input.DesiredEnd) != "" {
		parsed, parseErr := parseTimestamp(input.DesiredEnd, "desiredEnd")
		if parseErr != nil {
			return RequestView{}, parseErr
		}
		end = &parsed
	}
	if err := domain.ValidateRequestWindow(start, end); err != nil {
		return RequestView{}, err
	}
	if input.MaxBudget < 0 {
		return RequestView{}, fmt.Errorf("%w: maxBudget must not be negative", domain.ErrInvalidInput)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return RequestView{}, fmt.Errorf("%w: latitude and longitude must be provided together", domain.ErrInvalidInput)
	}
	if input.Latitude != nil {
		if _, err := domain.NewGeoPoint(*input.Latitude, *input.Longitude); err != nil {
			return RequestView{}, err
		}
	}

	var cached RequestView
	if ok, err := s.getIdempotent(ctx, idempotencyKey, hashRequest(input), &cached); err != nil {
		return RequestView{}, err
	} else if ok {
		return cached, nil
	}

	now := s.nowFn()
	req := domain.Request{
		RequestID:             uuid.New(),
		PatientID:             patientID,
		Type:                  requestType,
		PatientType:           strings.TrimSpace(input.PatientType),
		NeedDescription:       strings.TrimSpace(input.NeedDescription),
		DesiredStart:          start,
		DesiredEnd:            end,
		MaxBudget:             input.MaxBudget,
		SexPreference:         sexPreference,
		CertificationRequired: input.CertificationRequired,
		Latitude:              input.Latitude,
		Longitude:             input.Longitude,
		Address:               strings.TrimSpace(input.Address),
		City:                  strings.TrimSpace(input.City),
		UrgencyScore:          domain.UrgencyScore(requestType, start, now),
		Status:                domain.RequestStatusPending,
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		s.releaseIdempotent(ctx, idempotencyKey)
		return RequestView{}, err
	}
	view := toRequestView(req, nil)
	if err := s.completeIdempotent(ctx, idempotencyKey, 201, view); err != nil {
		return RequestView{}, err
	}
	return view, nil
}

func (s *Service) GetRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (RequestView, error) {
	if err := requireActor(actor); err != nil {
		return RequestView{}, err
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return RequestView{}, requestLookupError(err, requestID)
	}
	if !canReadRequest(actor, req) {
		return RequestView{}, forbidden("request %s belongs to another patient", requestID)
	}
	suggestion, found, err := s.suggestions.Get(ctx, requestID)
	if err != nil {
		return RequestView{}, err
	}
	if !found {
		return toRequestView(req, nil), nil
	}
	return toRequestView(req, &suggestion), nil
}

func (s *Service) GetSuggestions(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (SuggestionView, error) {
	if err := requireActor(actor); err != nil {
		return SuggestionView{}, err
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return SuggestionView{}, requestLookupError(err, requestID)
	}
	if !canManageRequest(actor, req) && !isDoctor(actor) {
		return SuggestionView{}, forbidden("request %s belongs to another patient", requestID)
	}
	view := SuggestionView{RequestID: requestID.String(), CaregiverIDs: []string{}}
	suggestion, found, err := s.suggestions.Get(ctx, requestID)
	if err != nil {
		return SuggestionView{}, err
	}
	if found {
		for _, id := range suggestion.CaregiverIDs {
			view.CaregiverIDs = append(view.CaregiverIDs, id.String())
		}
		at := suggestion.TriggeredAt
		view.TriggeredAt = &at
	}
	return view, nil
}

// DeleteRequest removes a request that never produced a mission.
func (s *Service) DeleteRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		req, err := tx.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return requestLookupError(err, requestID)
		}
		if !canManageRequest(actor, req) {
			return forbidden("request %s belongs to another patient", requestID)
		}
		count, err := tx.Missions.CountByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeRequestHasMissions, "request %s still has %d mission(s)", requestID, count)
		}
		if err := tx.Suggestions.Delete(ctx, requestID); err != nil {
			return err
		}
		return tx.Requests.Delete(ctx, requestID)
	})
}

// RefuseRequest is the admin rejection of a request. Any active mission is
// cancelled with it.
func (s *Service) RefuseRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID, reason string) (RequestView, error) {
	if err := requireAdmin(actor); err != nil {
		return RequestView{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "refused by administrator"
	}
	var out domain.Request
	archived := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		req, err := tx.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return requestLookupError(err, requestID)
		}
		if req.Status.IsTerminal() {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeRequestTerminal, "request %s is already %s", requestID, req.Status)
		}
		active, err := activeMission(ctx, tx.Missions, requestID)
		if err != nil {
			return err
		}
		if active != nil {
			if err := active.Archive(domain.FinalStatusCancelled, reason, s.nowFn()); err != nil {
				return err
			}
			if _, err := tx.Missions.Update(ctx, *active); err != nil {
				return err
			}
			archived = true
		}
		if err := s.setRequestStatus(ctx, tx, &req, domain.RequestStatusRefused, reason); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return RequestView{}, err
	}
	if archived {
		s.bumpCalendarGeneration(ctx)
	}
	return toRequestView(out, nil), nil
}

func activeMission(ctx context.Context, missions ports.MissionRepository, requestID uuid.UUID) (*domain.Mission, error) {
	list, err := missions.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].IsActive() {
			m := list[i]
			return &m, nil
		}
	}
	return nil, nil
}

func isDoctor(actor domain.Actor) bool {
	_, ok := actor.(domain.DoctorActor)
	return ok
}
