package application

import (
	"context"
	"errors"
	"strings"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
)

// ResolveActor turns a bearer token into the typed account behind it. Caregivers
// are looked up once here so handlers never repeat the profile lookup.
func (s *Service) ResolveActor(ctx context.Context, token string) (domain.Actor, error) {
	if strings.TrimSpace(token) == "" || s.tokens == nil {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil || !claims.Valid {
		return nil, domain.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	profileID := userID
	if strings.TrimSpace(claims.ProfileID) != "" {
		parsed, parseErr := uuid.Parse(claims.ProfileID)
		if parseErr != nil {
			return nil, domain.ErrUnauthorized
		}
		profileID = parsed
	}

	switch strings.ToLower(strings.TrimSpace(claims.Role)) {
	case "admin":
		return domain.AdminActor{UserID: userID}, nil
	case "patient":
		return domain.PatientActor{UserID: userID, PatientID: profileID}, nil
	case "doctor", "medecin":
		return domain.DoctorActor{UserID: userID, DoctorID: profileID}, nil
	case "caregiver", "aide", "aide_soignant":
		caregiver, lookupErr := s.caregivers.GetByUserID(ctx, userID)
		if lookupErr != nil {
			if errors.Is(lookupErr, domain.ErrNotFound) {
				return nil, domain.ErrUnauthorized
			}
			return nil, lookupErr
		}
		return domain.CaregiverActor{UserID: userID, CaregiverID: caregiver.CaregiverID}, nil
	default:
		return nil, domain.ErrUnauthorized
	}
}
