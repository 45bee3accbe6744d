package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carelink/mission-service/internal/application"
	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
)

func TestCancelBeforeStartTriggersRematch(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(nil)
	req := f.addRequest(func(r *domain.Request) { r.Status = domain.RequestStatusAccepted })
	mission := f.addMission(req, aide, nil)

	busy := f.addCaregiver(func(c *domain.Caregiver) { c.ExperienceLevel = 9 })
	other := f.addRequest(nil)
	f.addMission(other, busy, nil)
	for i := 0; i < 4; i++ {
		f.addCaregiver(nil)
	}
	f.addCaregiver(func(c *domain.Caregiver) { c.Validated = false; c.ExperienceLevel = 9 })

	view, err := f.svc.CancelMission(ctx, patientActor(req), req.RequestID, "")
	if err != nil {
		t.Fatalf("CancelMission error: %v", err)
	}
	if view.Status != string(domain.RequestStatusReassign) {
		t.Fatalf("expected A_REASSIGNER, got %s", view.Status)
	}
	stored := f.mission(mission.MissionID)
	if stored.Status != domain.MissionStatusCancelled || *stored.FinalStatus != domain.FinalStatusCancelled || stored.ArchiveReason == "" {
		t.Fatalf("expected mission archived ANNULÉE with reason, got %+v", stored)
	}

	events := f.db.eventsOfType(domain.EventRequestNeedsReassignment)
	if len(events) != 1 {
		t.Fatalf("expected one reassignment event, got %d", len(events))
	}
	if err := f.svc.HandleCanonicalEvent(ctx, events[0].EventType, events[0].Payload); err != nil {
		t.Fatalf("HandleCanonicalEvent error: %v", err)
	}
	suggestion, err := f.svc.GetSuggestions(ctx, patientActor(req), req.RequestID)
	if err != nil {
		t.Fatalf("GetSuggestions error: %v", err)
	}
	if len(suggestion.CaregiverIDs) != 3 || suggestion.TriggeredAt == nil {
		t.Fatalf("expected three stamped suggestions, got %+v", suggestion)
	}
	for _, id := range suggestion.CaregiverIDs {
		if id == busy.CaregiverID.String() {
			t.Fatalf("caregiver with an overlapping mission must not be suggested")
		}
	}

	if err := f.svc.HandleCanonicalEvent(ctx, events[0].EventType, events[0].Payload); err != nil {
		t.Fatalf("duplicate event error: %v", err)
	}
	if _, changed, err := f.svc.RematchRequest(ctx, req.RequestID); err != nil || changed {
		t.Fatalf("unchanged rematch must not rewrite the suggestion, changed=%v err=%v", changed, err)
	}
	if f.db.suggestionSaves != 1 {
		t.Fatalf("expected a single suggestion write, got %d", f.db.suggestionSaves)
	}
}

func TestCancelAfterStartCancelsRequest(t *testing.T) {
	t.Parallel()

	f := newFixture()
	aide := f.addCaregiver(nil)
	req := f.addRequest(func(r *domain.Request) {
		r.Status = domain.RequestStatusAccepted
		r.DesiredStart = f.clock.Now().Add(-5 * time.Minute)
	})
	mission := f.addMission(req, aide, nil)

	view, err := f.svc.CancelMission(context.Background(), caregiverActor(aide), req.RequestID, "sick")
	if err != nil {
		t.Fatalf("CancelMission error: %v", err)
	}
	if view.Status != string(domain.RequestStatusCancelled) {
		t.Fatalf("expected ANNULÉE, got %s", view.Status)
	}
	if got := f.mission(mission.MissionID); got.ArchiveReason != "sick" || !got.IsArchived() {
		t.Fatalf("unexpected mission %+v", got)
	}
	if n := len(f.db.eventsOfType(domain.EventRequestNeedsReassignment)); n != 0 {
		t.Fatalf("cancelling after start must not trigger reassignment, got %d events", n)
	}
	if _, err := f.svc.CancelMission(context.Background(), patientActor(req), req.RequestID, ""); domain.ErrorCode(err) != domain.CodeRequestTerminal {
		t.Fatalf("expected REQUEST_TERMINAL, got %v", err)
	}
}

func TestCancelRequiresParticipant(t *testing.T) {
	t.Parallel()

	f := newFixture()
	aide := f.addCaregiver(nil)
	stranger := f.addCaregiver(nil)
	req := f.addRequest(nil)
	f.addMission(req, aide, nil)

	_, err := f.svc.CancelMission(context.Background(), caregiverActor(stranger), req.RequestID, "")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if got := f.request(req.RequestID).Status; got != domain.RequestStatusPending {
		t.Fatalf("request mutated by a rejected cancellation: %s", got)
	}
}

func TestDeleteMissionRequiresArchival(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(nil)
	req := f.addRequest(nil)
	mission := f.addMission(req, aide, nil)

	if err := f.svc.DeleteMission(ctx, adminActor, mission.MissionID); domain.ErrorCode(err) != domain.CodeMissionNotArchived {
		t.Fatalf("expected MISSION_NOT_ARCHIVED, got %v", err)
	}
	if err := f.svc.DeleteMission(ctx, caregiverActor(aide), mission.MissionID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	if _, err := f.svc.RefuseMission(ctx, caregiverActor(aide), mission.MissionID, ""); err != nil {
		t.Fatalf("RefuseMission error: %v", err)
	}
	if got := f.request(req.RequestID).Status; got != domain.RequestStatusReassign {
		t.Fatalf("expected A_REASSIGNER after refusal, got %s", got)
	}
	if err := f.svc.DeleteMission(ctx, adminActor, mission.MissionID); err != nil {
		t.Fatalf("DeleteMission error: %v", err)
	}
	if n := len(f.db.eventsOfType(domain.EventRequestNeedsReassignment)); n != 1 {
		t.Fatalf("re-entering A_REASSIGNER must not emit a second event, got %d", n)
	}
	if _, err := f.svc.GetMission(ctx, adminActor, mission.MissionID); domain.ErrorCode(err) != domain.CodeMissionNotFound {
		t.Fatalf("expected deleted mission to be gone, got %v", err)
	}
}

func TestDeleteMissionKeepsTerminalRequest(t *testing.T) {
	t.Parallel()

	f := newFixture()
	aide := f.addCaregiver(nil)
	req := f.addRequest(func(r *domain.Request) { r.Status = domain.RequestStatusCompleted })
	now := f.clock.Now()
	mission := f.addMission(req, aide, func(m *domain.Mission) {
		_ = m.Archive(domain.FinalStatusCompleted, "done", now)
	})
	if err := f.svc.DeleteMission(context.Background(), adminActor, mission.MissionID); err != nil {
		t.Fatalf("DeleteMission error: %v", err)
	}
	if got := f.request(req.RequestID).Status; got != domain.RequestStatusCompleted {
		t.Fatalf("terminal request must stay %s, got %s", domain.RequestStatusCompleted, got)
	}
}

func TestAssignAcceptLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(nil)
	busy := f.addCaregiver(nil)
	unvalidated := f.addCaregiver(func(c *domain.Caregiver) { c.Validated = false })
	req := f.addRequest(func(r *domain.Request) { r.Status = domain.RequestStatusReassign })
	if err := (suggestionRepo{f.db}).Save(ctx, domain.Suggestion{RequestID: req.RequestID, CaregiverIDs: []uuid.UUID{aide.CaregiverID}, TriggeredAt: f.clock.Now()}); err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}
	f.addMission(f.addRequest(nil), busy, nil)

	if _, err := f.svc.AssignCaregiver(ctx, patientActor(req), "", req.RequestID, application.AssignCaregiverInput{CaregiverID: busy.CaregiverID.String()}); domain.ErrorCode(err) != domain.CodeCaregiverUnavailable {
		t.Fatalf("expected CAREGIVER_UNAVAILABLE, got %v", err)
	}
	if _, err := f.svc.AssignCaregiver(ctx, patientActor(req), "", req.RequestID, application.AssignCaregiverInput{CaregiverID: unvalidated.CaregiverID.String()}); domain.ErrorCode(err) != domain.CodeCaregiverNotValidated {
		t.Fatalf("expected CAREGIVER_NOT_VALIDATED, got %v", err)
	}

	mission, err := f.svc.AssignCaregiver(ctx, patientActor(req), "assign-1", req.RequestID, application.AssignCaregiverInput{CaregiverID: aide.CaregiverID.String()})
	if err != nil {
		t.Fatalf("AssignCaregiver error: %v", err)
	}
	if mission.Status != string(domain.MissionStatusPending) {
		t.Fatalf("expected pending mission, got %s", mission.Status)
	}
	replay, err := f.svc.AssignCaregiver(ctx, patientActor(req), "assign-1", req.RequestID, application.AssignCaregiverInput{CaregiverID: aide.CaregiverID.String()})
	if err != nil || replay.MissionID != mission.MissionID {
		t.Fatalf("expected idempotent replay, got %+v err=%v", replay, err)
	}
	if _, found, _ := (suggestionRepo{f.db}).Get(ctx, req.RequestID); found {
		t.Fatalf("assignment must drop the suggestion cache")
	}
	if got := f.request(req.RequestID).Status; got != domain.RequestStatusPending {
		t.Fatalf("expected EN_ATTENTE after assignment, got %s", got)
	}
	if _, err := f.svc.AssignCaregiver(ctx, adminActor, "", req.RequestID, application.AssignCaregiverInput{CaregiverID: aide.CaregiverID.String()}); domain.ErrorCode(err) != domain.CodeActiveMissionExists {
		t.Fatalf("expected ACTIVE_MISSION_EXISTS, got %v", err)
	}

	missionID := uuid.MustParse(mission.MissionID)
	if _, err := f.svc.CheckIn(ctx, caregiverActor(aide), missionID, consentAt(parisRef)); domain.ErrorCode(err) != domain.CodeMissionNotAccepted {
		t.Fatalf("expected MISSION_NOT_ACCEPTED before acceptance, got %v", err)
	}
	accepted, err := f.svc.AcceptMission(ctx, caregiverActor(aide), missionID)
	if err != nil {
		t.Fatalf("AcceptMission error: %v", err)
	}
	if accepted.Status != string(domain.MissionStatusAccepted) || f.request(req.RequestID).Status != domain.RequestStatusAccepted {
		t.Fatalf("expected mission and request ACCEPTÉE")
	}
	if f.cache.values["calendar:generation"] != "2" {
		t.Fatalf("expected calendar generation bumped twice, got %q", f.cache.values["calendar:generation"])
	}
}

func TestAssignRetryAfterFailedAttemptReusesKey(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(func(c *domain.Caregiver) { c.Validated = false })
	req := f.addRequest(nil)
	input := application.AssignCaregiverInput{CaregiverID: aide.CaregiverID.String()}

	if _, err := f.svc.AssignCaregiver(ctx, patientActor(req), "assign-retry", req.RequestID, input); domain.ErrorCode(err) != domain.CodeCaregiverNotValidated {
		t.Fatalf("expected CAREGIVER_NOT_VALIDATED, got %v", err)
	}

	aide.Validated = true
	if err := (caregiverRepo{f.db}).Upsert(ctx, aide); err != nil {
		t.Fatalf("validate caregiver: %v", err)
	}
	mission, err := f.svc.AssignCaregiver(ctx, patientActor(req), "assign-retry", req.RequestID, input)
	if err != nil {
		t.Fatalf("retry with the same key should succeed once the caregiver is validated, got %v", err)
	}
	replay, err := f.svc.AssignCaregiver(ctx, patientActor(req), "assign-retry", req.RequestID, input)
	if err != nil || replay.MissionID != mission.MissionID {
		t.Fatalf("expected replay of the successful attempt, got %+v err=%v", replay, err)
	}
}

func TestProposePriceBounds(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(nil)
	req := f.addRequest(func(r *domain.Request) { r.MaxBudget = 40 })
	mission := f.addMission(req, aide, nil)

	view, err := f.svc.ProposePrice(ctx, caregiverActor(aide), mission.MissionID, 60)
	if err != nil {
		t.Fatalf("ProposePrice error: %v", err)
	}
	if view.FinalPrice == nil || *view.FinalPrice != 60 {
		t.Fatalf("expected final price 60, got %v", view.FinalPrice)
	}
	if _, err := f.svc.ProposePrice(ctx, caregiverActor(aide), mission.MissionID, 61); domain.ErrorCode(err) != domain.CodePriceOutOfRange {
		t.Fatalf("expected PRICE_OUT_OF_RANGE, got %v", err)
	}
}

func TestRefuseRequestArchivesActiveMission(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	aide := f.addCaregiver(nil)
	req := f.addRequest(nil)
	mission := f.addMission(req, aide, func(m *domain.Mission) { m.Status = domain.MissionStatusPending })

	if _, err := f.svc.RefuseRequest(ctx, patientActor(req), req.RequestID, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for patient, got %v", err)
	}
	view, err := f.svc.RefuseRequest(ctx, adminActor, req.RequestID, "duplicate")
	if err != nil {
		t.Fatalf("RefuseRequest error: %v", err)
	}
	if view.Status != string(domain.RequestStatusRefused) {
		t.Fatalf("expected REFUSÉE, got %s", view.Status)
	}
	if got := f.mission(mission.MissionID); got.Status != domain.MissionStatusCancelled || !got.IsArchived() {
		t.Fatalf("expected active mission archived, got %+v", got)
	}
	if err := f.svc.DeleteRequest(ctx, adminActor, req.RequestID); domain.ErrorCode(err) != domain.CodeRequestHasMissions {
		t.Fatalf("expected REQUEST_HAS_MISSIONS, got %v", err)
	}
}

func TestCreateRequestIdempotency(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	patient := domain.PatientActor{UserID: uuid.New(), PatientID: uuid.New()}
	input := application.CreateRequestInput{
		Type:          "urgent",
		PatientType:   "PERSONNE_AGEE",
		DesiredStart:  f.clock.Now().Add(2 * time.Hour).Format(time.RFC3339),
		DesiredEnd:    f.clock.Now().Add(4 * time.Hour).Format(time.RFC3339),
		MaxBudget:     35,
		SexPreference: "F",
		Latitude:      floatPtr(parisRef.Latitude),
		Longitude:     floatPtr(parisRef.Longitude),
		City:          "Paris",
	}

	first, err := f.svc.CreateRequest(ctx, patient, "idem-1", input)
	if err != nil {
		t.Fatalf("CreateRequest error: %v", err)
	}
	if first.Status != string(domain.RequestStatusPending) || first.UrgencyScore != 100 || first.PatientID != patient.PatientID.String() {
		t.Fatalf("unexpected request %+v", first)
	}
	second, err := f.svc.CreateRequest(ctx, patient, "idem-1", input)
	if err != nil || second.RequestID != first.RequestID {
		t.Fatalf("expected idempotent replay, got %+v err=%v", second, err)
	}
	input.MaxBudget = 99
	if _, err := f.svc.CreateRequest(ctx, patient, "idem-1", input); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}

	input.DesiredEnd = f.clock.Now().Format(time.RFC3339)
	if _, err := f.svc.CreateRequest(ctx, patient, "", input); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected end before start to be rejected, got %v", err)
	}
	if _, err := f.svc.CreateRequest(ctx, caregiverActor(f.addCaregiver(nil)), "", input); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected caregivers to be rejected, got %v", err)
	}
}

func TestResolveActor(t *testing.T) {
	t.Parallel()

	f := newFixture()
	aide := f.addCaregiver(nil)
	patientID := uuid.New()
	f.tokens.claims["aide"] = portsClaims(aide.UserID.String(), "caregiver", "")
	f.tokens.claims["patient"] = portsClaims(uuid.NewString(), "patient", patientID.String())
	f.tokens.claims["orphan"] = portsClaims(uuid.NewString(), "caregiver", "")

	actor, err := f.svc.ResolveActor(context.Background(), "aide")
	if err != nil {
		t.Fatalf("ResolveActor error: %v", err)
	}
	if got, ok := actor.(domain.CaregiverActor); !ok || got.CaregiverID != aide.CaregiverID {
		t.Fatalf("expected caregiver actor, got %#v", actor)
	}
	actor, err = f.svc.ResolveActor(context.Background(), "patient")
	if err != nil {
		t.Fatalf("ResolveActor error: %v", err)
	}
	if got, ok := actor.(domain.PatientActor); !ok || got.PatientID != patientID {
		t.Fatalf("expected patient actor, got %#v", actor)
	}
	if _, err := f.svc.ResolveActor(context.Background(), "orphan"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for caregiver without profile, got %v", err)
	}
	if _, err := f.svc.ResolveActor(context.Background(), "unknown"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
