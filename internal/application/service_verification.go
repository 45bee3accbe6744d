package application

import (
	"context"
	"math"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

func missionNotAccepted(m domain.Mission) error {
	return domain.NewCodedError(domain.ErrPrecondition, domain.CodeMissionNotAccepted, "mission %s is %s, it must be accepted first", m.MissionID, m.Status)
}

func missionArchived(m domain.Mission) error {
	return domain.NewCodedError(domain.ErrConflict, domain.CodeMissionArchived, "mission %s is archived", m.MissionID)
}

func verifiedPoint(in VerificationInput) (domain.GeoPoint, error) {
	if !in.Consent {
		return domain.GeoPoint{}, domain.NewCodedError(domain.ErrInvalidInput, domain.CodeConsentRequired, "geolocation consent is required")
	}
	if in.Latitude == nil || in.Longitude == nil {
		return domain.GeoPoint{}, domain.NewCodedError(domain.ErrInvalidInput, domain.CodeInvalidCoordinates, "latitude and longitude must be numeric")
	}
	return domain.NewGeoPoint(*in.Latitude, *in.Longitude)
}

func (s *Service) CheckIn(ctx context.Context, actor domain.Actor, missionID uuid.UUID, in VerificationInput) (CheckInResult, error) {
	var out domain.Mission
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := loadOwnedMission(ctx, tx, actor, missionID)
		if err != nil {
			return err
		}
		if mission.Status != domain.MissionStatusAccepted {
			return missionNotAccepted(mission)
		}
		if mission.CheckInAt != nil {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeAlreadyCheckedIn, "mission already checked in at %s", mission.CheckInAt.Format(time.RFC3339))
		}
		if mission.IsArchived() {
			return missionArchived(mission)
		}
		if mission.StartsAt == nil {
			return domain.NewCodedError(domain.ErrPrecondition, domain.CodeNoStartDate, "mission %s has no planned start", missionID)
		}
		now := s.nowFn()
		if err := domain.NewCheckInWindow(*mission.StartsAt, s.cfg.CheckInTolerance).Check(now); err != nil {
			return err
		}
		point, err := verifiedPoint(in)
		if err != nil {
			return err
		}
		if err := mission.RecordCheckIn(point, now); err != nil {
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
		return CheckInResult{}, err
	}
	return CheckInResult{
		MissionID:          out.MissionID.String(),
		CheckInAt:          *out.CheckInAt,
		StatusVerification: string(*out.StatusVerification),
	}, nil
}

// CheckOut completes the mission whatever the distance to the patient. The
// distance only grades the visit as VALIDEE or SUSPECTE.
func (s *Service) CheckOut(ctx context.Context, actor domain.Actor, missionID uuid.UUID, in VerificationInput) (CheckOutResult, error) {
	var (
		out      domain.Mission
		distance float64
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := loadOwnedMission(ctx, tx, actor, missionID)
		if err != nil {
			return err
		}
		if mission.Status != domain.MissionStatusAccepted {
			return missionNotAccepted(mission)
		}
		if mission.CheckOutAt != nil {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeAlreadyCheckedOut, "mission already checked out at %s", mission.CheckOutAt.Format(time.RFC3339))
		}
		if mission.IsArchived() {
			return missionArchived(mission)
		}
		if mission.CheckInAt == nil {
			return domain.NewCodedError(domain.ErrConflict, domain.CodeCheckinRequired, "check-in is required before check-out")
		}
		point, err := verifiedPoint(in)
		if err != nil {
			return err
		}
		if err := domain.ValidateProofPhoto(in.ProofPhotoData); err != nil {
			return err
		}
		if err := domain.ValidateSignature(in.SignatureData); err != nil {
			return err
		}
		req, err := tx.Requests.GetForUpdate(ctx, mission.RequestID)
		if err != nil {
			return requestLookupError(err, mission.RequestID)
		}
		if !req.HasLocation() {
			return domain.NewCodedError(domain.ErrPrecondition, domain.CodePatientLocationMissing, "request %s has no reference location", req.RequestID)
		}
		target := domain.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
		distance = domain.HaversineMeters(point, target)
		now := s.nowFn()
		if err := mission.RecordCheckOut(domain.CheckOutRecord{
			Point:          point,
			Classification: domain.ClassifyDistance(distance, s.cfg.GeofenceMeters),
			ProofPhotoData: in.ProofPhotoData,
			SignatureData:  in.SignatureData,
		}, now); err != nil {
			return err
		}
		updated, err := tx.Missions.Update(ctx, mission)
		if err != nil {
			return err
		}
		out = updated
		if req.Status.IsTerminal() {
			return nil
		}
		return s.setRequestStatus(ctx, tx, &req, domain.RequestStatusCompleted, "mission checked out")
	})
	if err != nil {
		return CheckOutResult{}, err
	}

	s.bumpCalendarGeneration(ctx)
	s.afterCheckOut(ctx, out, distance)

	return CheckOutResult{
		MissionID:          out.MissionID.String(),
		CheckOutAt:         *out.CheckOutAt,
		StatusVerification: string(*out.StatusVerification),
		DistanceMeters:     math.Round(distance*100) / 100,
		ThresholdMeters:    s.cfg.GeofenceMeters,
		FinalStatus:        string(*out.FinalStatus),
	}, nil
}

// afterCheckOut runs the side effects of a completed mission. Failures are
// logged and never undo the check-out.
func (s *Service) afterCheckOut(ctx context.Context, mission domain.Mission, distance float64) {
	caregiverID := uuid.Nil
	if mission.CaregiverID != nil {
		caregiverID = *mission.CaregiverID
	}
	if s.reports != nil {
		path, err := s.reports.GenerateMissionReport(ctx, ports.MissionReport{
			MissionID:          mission.MissionID.String(),
			RequestID:          mission.RequestID.String(),
			CaregiverID:        caregiverID.String(),
			Title:              mission.Title,
			CheckInAt:          *mission.CheckInAt,
			CheckOutAt:         *mission.CheckOutAt,
			StatusVerification: string(*mission.StatusVerification),
			DistanceMeters:     distance,
			HasProofPhoto:      mission.ProofPhotoData != "",
			HasSignature:       mission.SignatureData != "",
		})
		if err == nil {
			err = s.missions.AttachReport(ctx, mission.MissionID, path, s.nowFn())
		}
		if err != nil {
			s.logger.WarnContext(ctx, "mission report generation failed",
				"module", "application.verification",
				"layer", "application",
				"operation", "generate_report",
				"outcome", "failure",
				"mission_id", mission.MissionID.String(),
				"error", err,
			)
		}
	}
	if err := s.enqueueEvent(ctx, s.outbox, domain.EventMissionCompleted, mission.RequestID, &mission.MissionID, domain.MissionCompleted{
		MissionID:          mission.MissionID,
		RequestID:          mission.RequestID,
		CaregiverID:        caregiverID,
		StatusVerification: *mission.StatusVerification,
		DistanceMeters:     distance,
		CheckOutAt:         *mission.CheckOutAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "mission completion notification failed",
			"module", "application.verification",
			"layer", "application",
			"operation", "notify_completion",
			"outcome", "failure",
			"mission_id", mission.MissionID.String(),
			"error", err,
		)
	}
}
