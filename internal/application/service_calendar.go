package application

import (
	"context"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

const timeLayout = time.RFC3339

// IsCaregiverAvailable reports whether the caregiver is free over [start, end].
// A nil end collapses the window to start.
func (s *Service) IsCaregiverAvailable(ctx context.Context, caregiverID uuid.UUID, start time.Time, end *time.Time) (bool, error) {
	caregiver, err := s.caregivers.Get(ctx, caregiverID)
	if err != nil {
		return false, caregiverLookupError(err, caregiverID)
	}
	windowEnd := start
	if end != nil {
		windowEnd = *end
	}
	return s.caregiverAvailable(ctx, s.missions, caregiver, start, windowEnd)
}

func (s *Service) caregiverAvailable(ctx context.Context, missions ports.MissionRepository, caregiver domain.Caregiver, start, end time.Time) (bool, error) {
	if !caregiver.Available {
		return false, nil
	}
	overlapping, err := missions.ListOverlapping(ctx, caregiver.CaregiverID, start, end)
	if err != nil {
		return false, err
	}
	for _, m := range overlapping {
		if !m.IsActive() {
			continue
		}
		mStart, mEnd, ok := m.Window()
		if ok && domain.IntervalsOverlap(mStart, mEnd, start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) CaregiverAvailability(ctx context.Context, actor domain.Actor, caregiverID uuid.UUID, startRaw, endRaw string) (AvailabilityView, error) {
	if err := requireActor(actor); err != nil {
		return AvailabilityView{}, err
	}
	start, err := parseTimestamp(startRaw, "start")
	if err != nil {
		return AvailabilityView{}, err
	}
	var end *time.Time
	if endRaw != "" {
		parsed, parseErr := parseTimestamp(endRaw, "end")
		if parseErr != nil {
			return AvailabilityView{}, parseErr
		}
		if err := domain.ValidateRequestWindow(start, &parsed); err != nil {
			return AvailabilityView{}, err
		}
		end = &parsed
	}
	available, err := s.IsCaregiverAvailable(ctx, caregiverID, start, end)
	if err != nil {
		return AvailabilityView{}, err
	}
	view := AvailabilityView{CaregiverID: caregiverID.String(), Start: start, End: start, Available: available}
	if end != nil {
		view.End = *end
	}
	return view, nil
}

// busySet returns the caregivers holding an active mission over the window.
func (s *Service) busySet(ctx context.Context, start, end time.Time) (map[uuid.UUID]struct{}, error) {
	ids, err := s.missions.BusyCaregiverIDs(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
