package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/carelink/mission-service/internal/domain"
)

type needsReassignmentEvent struct {
	EventID   string                          `json:"event_id"`
	EventType string                          `json:"event_type"`
	Data      domain.RequestNeedsReassignment `json:"data"`
}

// HandleCanonicalEvent dispatches a consumed event envelope. Unknown event
// types are ignored.
func (s *Service) HandleCanonicalEvent(ctx context.Context, eventType string, payload []byte) error {
	switch eventType {
	case domain.EventRequestNeedsReassignment:
		return s.handleRequestNeedsReassignment(ctx, payload)
	default:
		return nil
	}
}

func (s *Service) handleRequestNeedsReassignment(ctx context.Context, payload []byte) error {
	var evt needsReassignmentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid %s payload", domain.ErrInvalidInput, domain.EventRequestNeedsReassignment)
	}
	if strings.TrimSpace(evt.EventID) == "" {
		return fmt.Errorf("%w: event_id is required", domain.ErrInvalidInput)
	}
	dup, err := s.eventDedup.IsDuplicate(ctx, evt.EventID, s.nowFn())
	if err != nil {
		return err
	}
	if dup {
		return nil
	}
	if _, _, err := s.RematchRequest(ctx, evt.Data.RequestID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return s.eventDedup.MarkProcessed(ctx, evt.EventID, domain.EventRequestNeedsReassignment, evt.Data.RequestID, s.nowFn().Add(s.cfg.EventDedupTTL))
}
