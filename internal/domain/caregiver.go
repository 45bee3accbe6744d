package domain

import (
	"strings"

	"github.com/google/uuid"
)

type CaregiverSex string

const (
	CaregiverSexMale   CaregiverSex = "HOMME"
	CaregiverSexFemale CaregiverSex = "FEMME"
)

type Caregiver struct {
	CaregiverID          uuid.UUID
	UserID               uuid.UUID
	DisplayName          string
	Validated            bool
	Available            bool
	ExperienceLevel      int
	MinRate              int
	City                 string
	InterventionRadiusKm float64
	AcceptedPatientTypes string
	Sex                  CaregiverSex
}

// SexesFor maps a request preference onto the caregiver sexes it admits.
func SexesFor(pref SexPreference) []CaregiverSex {
	switch pref {
	case SexPreferenceMale:
		return []CaregiverSex{CaregiverSexMale}
	case SexPreferenceFemale:
		return []CaregiverSex{CaregiverSexFemale}
	default:
		return []CaregiverSex{CaregiverSexMale, CaregiverSexFemale}
	}
}

func (c Caregiver) MatchesSex(pref SexPreference) bool {
	if pref == SexPreferenceNone {
		return true
	}
	for _, s := range SexesFor(pref) {
		if c.Sex == s {
			return true
		}
	}
	return false
}

func (c Caregiver) AcceptsPatientType(patientType string) bool {
	token := strings.ToLower(strings.TrimSpace(patientType))
	if token == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.AcceptedPatientTypes), token)
}

// TrackRecord aggregates historical mission outcomes for one caregiver.
type TrackRecord struct {
	Total      int
	Completed  int
	Failed     int
	Suspicious int
}
