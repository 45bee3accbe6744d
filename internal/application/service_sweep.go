package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

const (
	expirySweepJob      = "expiry_sweep"
	unstartedMissionJob = "unstarted_mission_expiry"
	sweepLockKey        = "lock:expiry_sweep"
)

type sweepOutcome int

const (
	sweepSkipped sweepOutcome = iota
	sweepApplied
)

// RunExpirySweep forces the time-based transitions nobody triggered. The
// mission pass runs first so that requests released by it are considered by
// the request pass of the same run. Re-running on unchanged data changes nothing.
func (s *Service) RunExpirySweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := s.nowFn()

	checkedOut, err := s.missions.ListUnarchivedCheckedOut(ctx, s.cfg.SweepBatchSize)
	if err != nil {
		return report, err
	}
	for _, m := range checkedOut {
		outcome, err := s.sweepMission(ctx, m.MissionID, func(mission *domain.Mission, _ time.Time) (bool, domain.FinalStatus, domain.RequestStatus, string) {
			return mission.CheckOutAt != nil, domain.FinalStatusCompleted, domain.RequestStatusCompleted, "checked out, archived by sweep"
		})
		if s.countSweep(ctx, &report, err, "complete_checked_out", m.MissionID) && outcome == sweepApplied {
			report.MissionsCompleted++
		}
	}

	overdue, err := s.missions.ListCheckedInStartedBefore(ctx, now.Add(-s.cfg.MissionGracePeriod), s.cfg.SweepBatchSize)
	if err != nil {
		return report, err
	}
	for _, m := range overdue {
		outcome, err := s.sweepMission(ctx, m.MissionID, func(mission *domain.Mission, at time.Time) (bool, domain.FinalStatus, domain.RequestStatus, string) {
			eligible := mission.CheckInAt != nil && mission.CheckOutAt == nil && mission.StartsAt != nil &&
				mission.StartsAt.Add(s.cfg.MissionGracePeriod).Before(at)
			return eligible, domain.FinalStatusExpired, domain.RequestStatusPending, "no check-out before deadline"
		})
		if s.countSweep(ctx, &report, err, "expire_overdue", m.MissionID) && outcome == sweepApplied {
			report.MissionsExpired++
		}
	}

	expirable, err := s.requests.ListExpirable(ctx, s.nowFn(), s.cfg.SweepBatchSize)
	if err != nil {
		return report, err
	}
	for _, r := range expirable {
		archived := 0
		outcome, err := s.expireRequest(ctx, r.RequestID, &archived)
		if s.countSweep(ctx, &report, err, "expire_request", r.RequestID) && outcome == sweepApplied {
			report.RequestsExpired++
			report.MissionsExpired += archived
		}
	}

	if report.Changed() > 0 {
		s.bumpCalendarGeneration(ctx)
	}
	return report, nil
}

// countSweep logs a failed record and reports whether it succeeded. Conflicts
// are left for the next run.
func (s *Service) countSweep(ctx context.Context, report *SweepReport, err error, operation string, id uuid.UUID) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrConflict) {
		report.Conflicts++
	}
	s.logger.WarnContext(ctx, "sweep record skipped",
		"module", "application.sweep",
		"layer", "application",
		"operation", operation,
		"outcome", "failure",
		"id", id.String(),
		"error", err,
	)
	return false
}

type missionSweepRule func(mission *domain.Mission, now time.Time) (eligible bool, final domain.FinalStatus, requestStatus domain.RequestStatus, reason string)

func (s *Service) sweepMission(ctx context.Context, missionID uuid.UUID, rule missionSweepRule) (sweepOutcome, error) {
	outcome := sweepSkipped
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		mission, err := tx.Missions.GetForUpdate(ctx, missionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		now := s.nowFn()
		if mission.IsArchived() {
			return nil
		}
		eligible, final, requestStatus, reason := rule(&mission, now)
		if !eligible {
			return nil
		}
		if err := mission.Archive(final, reason, now); err != nil {
			return err
		}
		if _, err := tx.Missions.Update(ctx, mission); err != nil {
			return err
		}
		outcome = sweepApplied
		return s.releaseRequest(ctx, tx, mission.RequestID, requestStatus, reason)
	})
	return outcome, err
}

func (s *Service) expireRequest(ctx context.Context, requestID uuid.UUID, archived *int) (sweepOutcome, error) {
	outcome := sweepSkipped
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		*archived = 0
		req, err := tx.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		now := s.nowFn()
		if req.Status.IsTerminal() || req.Status == domain.RequestStatusAccepted || !req.DesiredStart.Before(now) {
			return nil
		}
		missions, err := tx.Missions.ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		for _, m := range missions {
			if !m.IsActive() {
				continue
			}
			if err := m.Archive(domain.FinalStatusExpired, "request expired before acceptance", now); err != nil {
				return err
			}
			if _, err := tx.Missions.Update(ctx, m); err != nil {
				return err
			}
			*archived++
		}
		if err := s.setRequestStatus(ctx, tx, &req, domain.RequestStatusExpired, "desired start passed"); err != nil {
			return err
		}
		outcome = sweepApplied
		return nil
	})
	return outcome, err
}

// ExpireUnstartedMissions archives accepted missions that never saw a check-in
// once their end (or the request's desired end, or the start) has passed.
func (s *Service) ExpireUnstartedMissions(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	candidates, err := s.missions.ListAcceptedWithoutCheckIn(ctx, s.nowFn(), s.cfg.SweepBatchSize)
	if err != nil {
		return report, err
	}
	for _, m := range candidates {
		req, err := s.requests.Get(ctx, m.RequestID)
		if err != nil {
			s.countSweep(ctx, &report, requestLookupError(err, m.RequestID), "expire_unstarted", m.MissionID)
			continue
		}
		desiredEnd := req.DesiredEnd
		outcome, err := s.sweepMission(ctx, m.MissionID, func(mission *domain.Mission, at time.Time) (bool, domain.FinalStatus, domain.RequestStatus, string) {
			deadline, ok := unstartedDeadline(*mission, desiredEnd)
			eligible := ok && mission.Status == domain.MissionStatusAccepted && mission.CheckInAt == nil && deadline.Before(at)
			return eligible, domain.FinalStatusExpired, domain.RequestStatusPending, "no check-in before end"
		})
		if s.countSweep(ctx, &report, err, "expire_unstarted", m.MissionID) && outcome == sweepApplied {
			report.MissionsExpired++
		}
	}
	if report.Changed() > 0 {
		s.bumpCalendarGeneration(ctx)
	}
	if s.jobRuns != nil {
		s.recordJobRun(ctx, unstartedMissionJob, report)
	}
	return report, nil
}

func unstartedDeadline(m domain.Mission, requestEnd *time.Time) (time.Time, bool) {
	switch {
	case m.EndsAt != nil:
		return *m.EndsAt, true
	case requestEnd != nil:
		return *requestEnd, true
	case m.StartsAt != nil:
		return *m.StartsAt, true
	default:
		return time.Time{}, false
	}
}

// RunScheduledSweep runs the expiry sweep at most once per interval across every
// instance sharing the lock backend and the job watermark.
func (s *Service) RunScheduledSweep(ctx context.Context) (bool, SweepReport, error) {
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.SweepLockTTL)
		if err != nil {
			return false, SweepReport{}, err
		}
		if !acquired {
			return false, SweepReport{}, nil
		}
		defer func() {
			if unlockErr := s.locker.Unlock(context.WithoutCancel(ctx), sweepLockKey, token); unlockErr != nil {
				s.logger.WarnContext(ctx, "sweep lock release failed",
					"module", "application.sweep",
					"layer", "application",
					"operation", "unlock",
					"outcome", "failure",
					"error", unlockErr,
				)
			}
		}()
	}
	if s.jobRuns != nil {
		last, found, err := s.jobRuns.LastRun(ctx, expirySweepJob)
		if err != nil {
			return false, SweepReport{}, err
		}
		if found && s.nowFn().Sub(last) < s.cfg.SweepInterval {
			return false, SweepReport{}, nil
		}
	}
	report, err := s.RunExpirySweep(ctx)
	if err != nil {
		return true, report, err
	}
	if s.jobRuns != nil {
		s.recordJobRun(ctx, expirySweepJob, report)
	}
	return true, report, nil
}

// TriggerSweep is the admin escape hatch; it ignores the watermark but still
// records the run.
func (s *Service) TriggerSweep(ctx context.Context, actor domain.Actor) (SweepReport, error) {
	if err := requireAdmin(actor); err != nil {
		return SweepReport{}, err
	}
	report, err := s.RunExpirySweep(ctx)
	if err != nil {
		return report, err
	}
	if s.jobRuns != nil {
		s.recordJobRun(ctx, expirySweepJob, report)
	}
	return report, nil
}

func (s *Service) recordJobRun(ctx context.Context, job string, report SweepReport) {
	summary, _ := json.Marshal(report)
	if err := s.jobRuns.RecordRun(ctx, job, s.nowFn(), string(summary)); err != nil {
		s.logger.WarnContext(ctx, "job watermark write failed",
			"module", "application.sweep",
			"layer", "application",
			"operation", "record_run",
			"outcome", "failure",
			"job", job,
			"error", err,
		)
	}
}
