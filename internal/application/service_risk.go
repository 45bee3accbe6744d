package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

const alertScanLimit = 500

func (s *Service) CaregiverReliability(ctx context.Context, actor domain.Actor, caregiverID uuid.UUID) (ReliabilityView, error) {
	if err := requireAdmin(actor); err != nil {
		return ReliabilityView{}, err
	}
	if _, err := s.caregivers.Get(ctx, caregiverID); err != nil {
		return ReliabilityView{}, caregiverLookupError(err, caregiverID)
	}
	tracks, err := s.missions.TrackRecords(ctx, []uuid.UUID{caregiverID})
	if err != nil {
		return ReliabilityView{}, err
	}
	return toReliabilityView(caregiverID, tracks[caregiverID]), nil
}

func toReliabilityView(caregiverID uuid.UUID, track domain.TrackRecord) ReliabilityView {
	return ReliabilityView{
		CaregiverID:       caregiverID.String(),
		Score:             domain.ReliabilityScore(track),
		TotalMissions:     track.Total,
		CompletedMissions: track.Completed,
		FailedMissions:    track.Failed,
		SuspiciousChecks:  track.Suspicious,
		Flags:             domain.ReliabilityFlags(track),
	}
}

func (s *Service) RequestRisk(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (RequestRiskView, error) {
	if err := requireAdmin(actor); err != nil {
		return RequestRiskView{}, err
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return RequestRiskView{}, requestLookupError(err, requestID)
	}
	risk := domain.ScoreRequestRisk(req, s.nowFn())
	return RequestRiskView{RequestID: requestID.String(), Score: risk.Score, Level: string(risk.Level), Reasons: risk.Reasons}, nil
}

// AdminAlerts merges low-reliability caregivers, high-risk requests and
// started missions without a check-in, most severe first.
func (s *Service) AdminAlerts(ctx context.Context, actor domain.Actor, limit int) ([]AlertView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.DefaultAlertLimit
	}
	now := s.nowFn()
	alerts := make([]domain.Alert, 0)

	caregivers, err := s.caregivers.List(ctx, ports.CaregiverFilter{Limit: alertScanLimit})
	if err != nil {
		return nil, err
	}
	if len(caregivers) > 0 {
		ids := make([]uuid.UUID, 0, len(caregivers))
		for _, c := range caregivers {
			ids = append(ids, c.CaregiverID)
		}
		tracks, err := s.missions.TrackRecords(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, c := range caregivers {
			track := tracks[c.CaregiverID]
			score := domain.ReliabilityScore(track)
			if track.Total == 0 || score >= domain.LowReliabilityThreshold {
				continue
			}
			severity := 100 - score
			alerts = append(alerts, domain.Alert{
				Type:      domain.AlertLowReliability,
				SubjectID: c.CaregiverID,
				Severity:  severity,
				Level:     domain.RiskLevelFor(severity),
				Message:   fmt.Sprintf("caregiver %s reliability is %d", displayName(c), score),
			})
		}
	}

	open, err := s.requests.ListOpen(ctx, alertScanLimit)
	if err != nil {
		return nil, err
	}
	for _, req := range open {
		risk := domain.ScoreRequestRisk(req, now)
		if risk.Score < domain.HighRiskThreshold {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertHighRiskRequest,
			SubjectID: req.RequestID,
			Severity:  risk.Score,
			Level:     risk.Level,
			Message:   fmt.Sprintf("request %s is %s risk (%d)", req.RequestID, risk.Level, risk.Score),
		})
	}

	late, err := s.missions.ListAcceptedWithoutCheckIn(ctx, now, alertScanLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range late {
		if m.StartsAt == nil {
			continue
		}
		lateBy := now.Sub(*m.StartsAt)
		severity := domain.MissingCheckInSeverity(lateBy)
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertMissingCheckIn,
			SubjectID: m.MissionID,
			Severity:  severity,
			Level:     domain.RiskLevelFor(severity),
			Message:   fmt.Sprintf("mission %s started %s ago without check-in", m.MissionID, lateBy.Truncate(time.Minute)),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Severity > alerts[j].Severity })
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertView{
			Type:      string(a.Type),
			SubjectID: a.SubjectID.String(),
			Severity:  a.Severity,
			Level:     string(a.Level),
			Message:   a.Message,
		})
	}
	return out, nil
}

func displayName(c domain.Caregiver) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.CaregiverID.String()
}
