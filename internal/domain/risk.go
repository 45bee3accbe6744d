package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FlagRepeatedCancellations = "REPEATED_CANCELLATIONS"
	FlagSuspiciousCheckout    = "SUSPICIOUS_CHECKOUT"
	FlagNoCompletedMissions   = "NO_COMPLETED_MISSIONS"
)

type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "HIGH"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelLow    RiskLevel = "LOW"
)

const (
	LowReliabilityThreshold = 50
	HighRiskThreshold       = 70
	MediumRiskThreshold     = 40
)

type Reliability struct {
	CaregiverID uuid.UUID
	Score       int
	Track       TrackRecord
	Flags       []string
}

func ReliabilityScore(track TrackRecord) int {
	score := 100
	score -= min(45, 10*track.Failed)
	score -= min(35, 8*track.Suspicious)
	score += min(20, 2*track.Completed)
	return clampInt(score, 0, 100)
}

func ReliabilityFlags(track TrackRecord) []string {
	flags := []string{}
	if track.Failed >= 2 {
		flags = append(flags, FlagRepeatedCancellations)
	}
	if track.Suspicious >= 1 {
		flags = append(flags, FlagSuspiciousCheckout)
	}
	if track.Total > 0 && track.Completed == 0 {
		flags = append(flags, FlagNoCompletedMissions)
	}
	return flags
}

type RequestRisk struct {
	RequestID uuid.UUID
	Score     int
	Level     RiskLevel
	Reasons   []string
}

func ScoreRequestRisk(req Request, now time.Time) RequestRisk {
	score := 0
	reasons := []string{}
	switch {
	case req.UrgencyScore >= 80:
		score += 45
		reasons = append(reasons, "high_urgency")
	case req.UrgencyScore >= 50:
		score += 30
		reasons = append(reasons, "medium_urgency")
	}
	if req.MaxBudget < 40 {
		score += 15
		reasons = append(reasons, "low_budget")
	}
	if req.Status == RequestStatusReassign {
		score += 20
		reasons = append(reasons, "needs_reassignment")
	}
	if !req.Status.IsTerminal() && req.DesiredStart.Before(now) {
		score += 20
		reasons = append(reasons, "overdue_start")
	}
	score = clampInt(score, 0, 100)
	return RequestRisk{RequestID: req.RequestID, Score: score, Level: RiskLevelFor(score), Reasons: reasons}
}

func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskLevelHigh
	case score >= MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

type AlertType string

const (
	AlertLowReliability    AlertType = "LOW_RELIABILITY_CAREGIVER"
	AlertHighRiskRequest   AlertType = "HIGH_RISK_REQUEST"
	AlertMissingCheckIn    AlertType = "MISSING_CHECKIN"
	missingCheckInSeverity           = 75
)

type Alert struct {
	Type      AlertType
	SubjectID uuid.UUID
	Severity  int
	Level     RiskLevel
	Message   string
}

func MissingCheckInSeverity(lateBy time.Duration) int {
	return clampInt(missingCheckInSeverity+int(lateBy/(30*time.Minute))*5, 0, 100)
}
