package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

// TopMatches ranks validated caregivers for a request. Results are advisory and
// cached until the calendar generation moves or the TTL elapses.
func (s *Service) TopMatches(ctx context.Context, actor domain.Actor, requestID uuid.UUID, limit int) ([]MatchView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.DefaultMatchLimit
	}
	if limit > s.cfg.MaxMatchLimit {
		limit = s.cfg.MaxMatchLimit
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, requestLookupError(err, requestID)
	}
	if !canManageRequest(actor, req) && !isDoctor(actor) {
		return nil, forbidden("request %s belongs to another patient", requestID)
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("matches:%s:g%s:n%d", requestID, s.calendarGeneration(ctx), limit)
		if raw, cacheErr := s.cache.Get(ctx, cacheKey); cacheErr == nil && raw != "" {
			var cached []MatchView
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	ranked, err := s.rankCaregivers(ctx, req, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MatchView, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, MatchView{
			CaregiverID:     r.Caregiver.CaregiverID.String(),
			DisplayName:     r.Caregiver.DisplayName,
			City:            r.Caregiver.City,
			ExperienceLevel: r.Caregiver.ExperienceLevel,
			MinRate:         r.Caregiver.MinRate,
			Score:           r.Score,
			Available:       r.Available,
		})
	}

	if cacheKey != "" {
		if raw, marshalErr := json.Marshal(out); marshalErr == nil {
			if setErr := s.cache.Set(ctx, cacheKey, string(raw), s.cfg.MatchCacheTTL); setErr != nil {
				s.logger.WarnContext(ctx, "match cache write failed",
					"module", "application.matching",
					"layer", "application",
					"operation", "cache_set",
					"outcome", "failure",
					"error", setErr,
				)
			}
		}
	}
	return out, nil
}

func (s *Service) rankCaregivers(ctx context.Context, req domain.Request, limit int) ([]domain.MatchResult, error) {
	candidates, err := s.caregivers.List(ctx, ports.CaregiverFilter{
		ValidatedOnly: true,
		Sexes:         domain.SexesFor(req.SexPreference),
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.MatchResult{}, nil
	}
	start, end := req.Window()
	busy, err := s.busySet(ctx, start, end)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.CaregiverID)
	}
	tracks, err := s.missions.TrackRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		_, isBusy := busy[c.CaregiverID]
		available := c.Available && !isBusy
		results = append(results, domain.MatchResult{
			Caregiver: c,
			Score:     domain.MatchScore(req, c, available, tracks[c.CaregiverID]),
			Available: available,
		})
	}
	return domain.RankMatches(results, limit), nil
}
