package domain

import (
	"math"
	"sort"
	"strings"
)

const (
	matchAvailableBonus   = 30.0
	matchExperienceCap    = 20.0
	matchBudgetCap        = 20.0
	matchPatientTypeBonus = 20.0
	matchUrgencyCap       = 10.0
	matchTrackRecordCap   = 20.0
)

// MatchScore ranks a caregiver for manual selection. Every term is capped on its
// own and the total is clamped to [0,100].
func MatchScore(req Request, c Caregiver, available bool, track TrackRecord) int {
	score := 0.0
	if available {
		score += matchAvailableBonus
	}
	score += math.Min(matchExperienceCap, 2*float64(max(c.ExperienceLevel, 0)))
	score += BudgetScore(c.MinRate, req.MaxBudget)
	if c.AcceptsPatientType(req.PatientType) {
		score += matchPatientTypeBonus
	}
	score += math.Min(matchUrgencyCap, math.Max(0, float64(req.UrgencyScore)/10))
	score += float64(clampInt(2*track.Completed-track.Failed, 0, int(matchTrackRecordCap)))
	return clampInt(int(math.Round(score)), 0, 100)
}

// BudgetScore is 20 when the rate fits the budget and decays linearly to 0 as the
// rate exceeds the budget by 100%.
func BudgetScore(rate, budget int) float64 {
	if rate <= budget {
		return matchBudgetCap
	}
	if budget <= 0 {
		return 0
	}
	over := float64(rate-budget) / float64(budget)
	return math.Max(0, matchBudgetCap*(1-over))
}

type MatchResult struct {
	Caregiver Caregiver
	Score     int
	Available bool
}

// RankMatches sorts by score descending, keeping input order for ties, and
// truncates to limit when limit > 0.
func RankMatches(results []MatchResult, limit int) []MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// DistanceStrategy estimates the distance between a request and a caregiver's
// home city for auto-rematch purposes.
type DistanceStrategy interface {
	DistanceKm(requestCity, caregiverCity string) float64
}

// CoarseCityDistance is a deliberate approximation: identical city names are
// 0 km apart, anything else is PlaceholderKm apart. No geocoding happens.
type CoarseCityDistance struct {
	PlaceholderKm float64
}

func (d CoarseCityDistance) DistanceKm(requestCity, caregiverCity string) float64 {
	a := strings.ToLower(strings.TrimSpace(requestCity))
	b := strings.ToLower(strings.TrimSpace(caregiverCity))
	if a != "" && a == b {
		return 0
	}
	if d.PlaceholderKm <= 0 {
		return 15
	}
	return d.PlaceholderKm
}

const (
	rematchExperiencePerLevel = 5
	rematchExperienceLevels   = 5
	rematchAvailableBonus     = 25
	rematchBudgetBonus        = 15
	rematchDistanceBonus      = 20
	rematchSexBonus           = 15
	MaxSuggestions            = 3
)

// RematchScore is the simpler formula used for automatic suggestions. Callers
// only pass caregivers that already survived the calendar filter.
func RematchScore(req Request, c Caregiver, available bool, distance DistanceStrategy) int {
	score := rematchExperiencePerLevel * clampInt(c.ExperienceLevel, 0, rematchExperienceLevels)
	if available {
		score += rematchAvailableBonus
	}
	if c.MinRate <= req.MaxBudget {
		score += rematchBudgetBonus
	}
	if distance.DistanceKm(req.City, c.City) <= c.InterventionRadiusKm {
		score += rematchDistanceBonus
	}
	if c.MatchesSex(req.SexPreference) {
		score += rematchSexBonus
	}
	return score
}
