package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

func (s *Service) GetMission(ctx context.Context, actor domain.Actor, missionID uuid.UUID) (MissionView, error) {
	if err := requireActor(actor); err != nil {
		return MissionView{}, err
	}
	mission, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return MissionView{}, missionLookupError(err, missionID)
	}
	switch a := actor.(type) {
	case domain.CaregiverActor:
		if !mission.AssignedTo(a.CaregiverID) {
			return MissionView{}, domain.NewCodedError(domain.ErrForbidden, domain.CodeNotOwner, "mission %s is assigned to another caregiver", missionID)
		}
	case domain.PatientActor:
		req, err := s.requests.Get(ctx, mission.RequestID)
		if err != nil {
			return MissionView{}, requestLookupError(err, mission.RequestID)
		}
		if req.PatientID != a.PatientID {
			return MissionView{}, forbidden("mission %s belongs to another patient", missionID)
		}
	}
	return toMissionView(mission), nil
}

// AssignCaregiver creates the pending mission for a chosen caregiver. The
// calendar is re-checked inside the transaction.
func (s *Service) AssignCaregiver(ctx context.Context, actor domain.Actor, idempotencyKey string, requestID uuid.UUID, input AssignCaregiverInput) (MissionView, error) {
	if err := requireActor(actor); err != nil {
		return MissionView{}, err
	}
	caregiverID, err := parseID(input.CaregiverID, "caregiverId")
	if err != nil {
		return MissionView{}, err
	}
	var cached MissionView
	if ok, err := s.getIdempotent(ctx, idempotencyKey, hashRequest(struct {
		RequestID string
		Input     AssignCaregiverInput
	}{requestID.String(), input}), &cached); err != nil {
		return MissionView{}, err
	} else if ok {
		return cached, nil
	}

	var created domain.Mission
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		req, err := tx.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return requestLookupError(err, requestID)
		}
		if !canManageRequest(actor, req) {
			return forbidden("request %s belongs to another patient", requestID)
		}
		if req.Status != domain.RequestStatusPending && req.Status != domain.RequestStatusReassign {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeRequestNotAssignable, "request %s is %s", requestID, req.Status)
		}
		active, err := activeMission(ctx, tx.Missions, requestID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeActiveMissionExists, "request %s already has active mission %s", requestID, active.MissionID)
		}
		caregiver, err := tx.Caregivers.Get(ctx, caregiverID)
		if err != nil {
			return caregiverLookupError(err, caregiverID)
		}
		if !caregiver.Validated {
			return domain.NewCodedError(domain.ErrPrecondition, domain.CodeCaregiverNotValidated, "caregiver %s is not validated", caregiverID)
		}
		start, end := req.Window()
		available, err := s.caregiverAvailable(ctx, tx.Missions, caregiver, start, end)
		if err != nil {
			return err
		}
		if !available {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeCaregiverUnavailable, "caregiver %s is not available between %s and %s", caregiverID, start.Format(timeLayout), end.Format(timeLayout))
		}

		now := s.nowFn()
		startsAt := req.DesiredStart
		title := strings.TrimSpace(input.Title)
		if title == "" {
			title = fmt.Sprintf("Mission %s %s", req.Type, req.DesiredStart.Format("2006-01-02 15:04"))
		}
		created = domain.Mission{
			MissionID:   uuid.New(),
			RequestID:   req.RequestID,
			CaregiverID: &caregiverID,
			Title:       title,
			StartsAt:    &startsAt,
			EndsAt:      req.DesiredEnd,
			Status:      domain.MissionStatusPending,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Missions.Create(ctx, created); err != nil {
			return err
		}
		if err := tx.Suggestions.Delete(ctx, requestID); err != nil {
			return err
		}
		return s.setRequestStatus(ctx, tx, &req, domain.RequestStatusPending, "caregiver assigned")
	})
	if err != nil {
		s.releaseIdempotent(ctx, idempotencyKey)
		return MissionView{}, err
	}
	s.bumpCalendarGeneration(ctx)
	view := toMissionView(created)
	if err := s.completeIdempotent(ctx, idempotencyKey, 201, view); err != nil {
		return MissionView{}, err
	}
	return view, nil
}

// loadOwnedMission resolves the caregiver and the mission they act on, in the
// order clients rely on for error codes.
func loadOwnedMission(ctx context.Context, tx ports.TxRepositories, actor domain.Actor, missionID uuid.UUID) (domain.Mission, error) {
	mission, err := tx.Missions.GetForUpdate(ctx, missionID)
	if err != nil {
		return domain.Mission{}, missionLookupError(err, missionID)
	}
	caregiver, err := domain.AsCaregiver(actor)
	if err != nil {
		return domain.Mission{}, err
	}
	if !mission.AssignedTo(caregiver.CaregiverID) {
		return domain.Mission{}, domain.NewCodedError(domain.ErrForbidden, domain.CodeNotOwner, "mission %s is assigned to another caregiver", missionID)
	}
	return mission, nil
}

func (s *Service) AcceptMission(ctx context.Context, actor domain.Actor, missionID uuid.UUID) (MissionView, error) {
	if err := requireActor(actor); err != nil {
		return MissionView{}, err
	}
	var out domain.Mission
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := loadOwnedMission(ctx, tx, actor, missionID)
		if err != nil {
			return err
		}
		req, err := tx.Requests.GetForUpdate(ctx, mission.RequestID)
		if err != nil {
			return requestLookupError(err, mission.RequestID)
		}
		if req.Status.IsTerminal() {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeRequestTerminal, "request %s is already %s", req.RequestID, req.Status)
		}
		if err := mission.Accept(s.nowFn()); err != nil {
			return err
		}
		updated, err := tx.Missions.Update(ctx, mission)
		if err != nil {
			return err
		}
		out = updated
		return s.setRequestStatus(ctx, tx, &req, domain.RequestStatusAccepted, "mission accepted")
	})
	if err != nil {
		return MissionView{}, err
	}
	s.bumpCalendarGeneration(ctx)
	return toMissionView(out), nil
}

// RefuseMission lets the assigned caregiver decline; the request goes back to
// reassignment.
func (s *Service) RefuseMission(ctx context.Context, actor domain.Actor, missionID uuid.UUID, reason string) (MissionView, error) {
	if err := requireActor(actor); err != nil {
		return MissionView{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "refused by caregiver"
	}
	var out domain.Mission
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := loadOwnedMission(ctx, tx, actor, missionID)
		if err != nil {
			return err
		}
		if mission.CheckInAt != nil {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeAlreadyCheckedIn, "mission %s has already started", missionID)
		}
		if err := mission.Archive(domain.FinalStatusCancelled, reason, s.nowFn()); err != nil {
			return err
		}
		updated, err := tx.Missions.Update(ctx, mission)
		if err != nil {
			return err
		}
		out = updated
		return s.releaseRequest(ctx, tx, mission.RequestID, domain.RequestStatusReassign, reason)
	})
	if err != nil {
		return MissionView{}, err
	}
	s.bumpCalendarGeneration(ctx)
	return toMissionView(out), nil
}

func (s *Service) ProposePrice(ctx context.Context, actor domain.Actor, missionID uuid.UUID, price int) (MissionView, error) {
	if err := requireActor(actor); err != nil {
		return MissionView{}, err
	}
	var out domain.Mission
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := loadOwnedMission(ctx, tx, actor, missionID)
		if err != nil {
			return err
		}
		req, err := tx.Requests.Get(ctx, mission.RequestID)
		if err != nil {
			return requestLookupError(err, mission.RequestID)
		}
		if err := mission.SetFinalPrice(price, req.MaxBudget, s.cfg.PriceTolerance, s.nowFn()); err != nil {
			return err
		}
		updated, err := tx.Missions.Update(ctx, mission)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return MissionView{}, err
	}
	return toMissionView(out), nil
}

// CancelMission cancels the active mission of a request. Before the planned
// start the request is sent back for reassignment, afterwards it is cancelled
// outright. A request without an active mission is cancelled directly.
func (s *Service) CancelMission(ctx context.Context, actor domain.Actor, requestID uuid.UUID, reason string) (RequestView, error) {
	if err := requireActor(actor); err != nil {
		return RequestView{}, err
	}
	var out domain.Request
	archived := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		req, err := tx.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return requestLookupError(err, requestID)
		}
		active, err := activeMission(ctx, tx.Missions, requestID)
		if err != nil {
			return err
		}
		if !canCancel(actor, req, active) {
			return forbidden("not allowed to cancel request %s", requestID)
		}
		if req.Status.IsTerminal() {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeRequestTerminal, "request %s is already %s", requestID, req.Status)
		}
		why := strings.TrimSpace(reason)
		if why == "" {
			why = "cancelled by " + string(actor.Kind())
		}
		now := s.nowFn()
		next := domain.RequestStatusCancelled
		if active != nil {
			if active.StartsAt != nil && now.Before(*active.StartsAt) {
				next = domain.RequestStatusReassign
			}
			if err := active.Archive(domain.FinalStatusCancelled, why, now); err != nil {
				return err
			}
			if _, err := tx.Missions.Update(ctx, *active); err != nil {
				return err
			}
			archived = true
		}
		if err := s.setRequestStatus(ctx, tx, &req, next, why); err != nil {
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

func canCancel(actor domain.Actor, req domain.Request, active *domain.Mission) bool {
	if canManageRequest(actor, req) {
		return true
	}
	if caregiver, ok := actor.(domain.CaregiverActor); ok && active != nil {
		return active.AssignedTo(caregiver.CaregiverID)
	}
	return false
}

// DeleteMission removes an archived mission. The request is returned to
// reassignment unless it is final or another mission already holds it.
func (s *Service) DeleteMission(ctx context.Context, actor domain.Actor, missionID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := tx.Missions.GetForUpdate(ctx, missionID)
		if err != nil {
			return missionLookupError(err, missionID)
		}
		if !mission.IsArchived() {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeMissionNotArchived, "mission %s must be archived before deletion", missionID)
		}
		if err := tx.Missions.Delete(ctx, missionID); err != nil {
			return err
		}
		active, err := activeMission(ctx, tx.Missions, mission.RequestID)
		if err != nil {
			return err
		}
		if active != nil {
			return nil
		}
		return s.releaseRequest(ctx, tx, mission.RequestID, domain.RequestStatusReassign, "mission deleted")
	})
}
