package application

import (
	"context"
	"sort"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

type rematchCandidate struct {
	caregiverID uuid.UUID
	score       int
}

// RematchRequest recomputes the suggestion list for a request waiting for
// reassignment. It never creates a mission nor changes the request status, and
// an unchanged result is not rewritten.
func (s *Service) RematchRequest(ctx context.Context, requestID uuid.UUID) (domain.Suggestion, bool, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return domain.Suggestion{}, false, requestLookupError(err, requestID)
	}
	if req.Status != domain.RequestStatusReassign {
		return domain.Suggestion{}, false, nil
	}

	pool, err := s.caregivers.List(ctx, ports.CaregiverFilter{ValidatedOnly: true, AvailableOnly: true})
	if err != nil {
		return domain.Suggestion{}, false, err
	}
	start, end := req.Window()
	busy, err := s.busySet(ctx, start, end)
	if err != nil {
		return domain.Suggestion{}, false, err
	}

	scored := make([]rematchCandidate, 0, len(pool))
	for _, c := range pool {
		if _, isBusy := busy[c.CaregiverID]; isBusy {
			continue
		}
		scored = append(scored, rematchCandidate{
			caregiverID: c.CaregiverID,
			score:       domain.RematchScore(req, c, true, s.distance),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > domain.MaxSuggestions {
		scored = scored[:domain.MaxSuggestions]
	}
	ids := make([]uuid.UUID, 0, len(scored))
	for _, c := range scored {
		ids = append(ids, c.caregiverID)
	}

	existing, found, err := s.suggestions.Get(ctx, requestID)
	if err != nil {
		return domain.Suggestion{}, false, err
	}
	if found && existing.SameCaregivers(ids) {
		return existing, false, nil
	}
	suggestion := domain.Suggestion{RequestID: requestID, CaregiverIDs: ids, TriggeredAt: s.nowFn()}
	if err := s.suggestions.Save(ctx, suggestion); err != nil {
		return domain.Suggestion{}, false, err
	}
	s.logger.InfoContext(ctx, "suggestions refreshed",
		"module", "application.rematch",
		"layer", "application",
		"operation", "rematch_request",
		"outcome", "success",
		"request_id", requestID.String(),
		"suggestions", len(ids),
	)
	return suggestion, true, nil
}
