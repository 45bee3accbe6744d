package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RequestType string

const (
	RequestTypeUrgent   RequestType = "URGENT"
	RequestTypeNormal   RequestType = "NORMAL"
	RequestTypeEconomie RequestType = "ECONOMIE"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "EN_ATTENTE"
	RequestStatusAccepted  RequestStatus = "ACCEPTÉE"
	RequestStatusReassign  RequestStatus = "A_REASSIGNER"
	RequestStatusCancelled RequestStatus = "ANNULÉE"
	RequestStatusExpired   RequestStatus = "EXPIRÉE"
	RequestStatusCompleted RequestStatus = "TERMINÉE"
	RequestStatusRefused   RequestStatus = "REFUSÉE"
)

// SexPreference is the caregiver sex requested by the patient. Empty means no preference.
type SexPreference string

const (
	SexPreferenceNone   SexPreference = ""
	SexPreferenceMale   SexPreference = "M"
	SexPreferenceFemale SexPreference = "F"
)

var terminalRequestStatuses = map[RequestStatus]struct{}{
	RequestStatusCompleted: {},
	RequestStatusExpired:   {},
	RequestStatusCancelled: {},
	RequestStatusRefused:   {},
}

func (s RequestStatus) IsTerminal() bool {
	_, ok := terminalRequestStatuses[s]
	return ok
}

func TerminalRequestStatuses() []RequestStatus {
	return []RequestStatus{RequestStatusCompleted, RequestStatusExpired, RequestStatusCancelled, RequestStatusRefused}
}

type Request struct {
	RequestID             uuid.UUID
	PatientID             uuid.UUID
	Type                  RequestType
	PatientType           string
	NeedDescription       string
	DesiredStart          time.Time
	DesiredEnd            *time.Time
	MaxBudget             int
	SexPreference         SexPreference
	CertificationRequired bool
	Latitude              *float64
	Longitude             *float64
	Address               string
	City                  string
	UrgencyScore          int
	Status                RequestStatus
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Window is the desired [start, end] of the request; a missing end collapses to start.
func (r Request) Window() (time.Time, time.Time) {
	if r.DesiredEnd == nil {
		return r.DesiredStart, r.DesiredStart
	}
	return r.DesiredStart, *r.DesiredEnd
}

func (r Request) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// StatusChange describes the outcome of a request transition.
type StatusChange struct {
	From            RequestStatus
	To              RequestStatus
	Changed         bool
	EnteredReassign bool
}

// TransitionTo moves the request to the given status and reports the edge.
// Re-entering the current status is a no-op and never counts as entering A_REASSIGNER.
func (r *Request) TransitionTo(status RequestStatus, at time.Time) StatusChange {
	change := StatusChange{From: r.Status, To: status}
	if r.Status == status {
		return change
	}
	r.Status = status
	r.UpdatedAt = at
	change.Changed = true
	change.EnteredReassign = status == RequestStatusReassign
	return change
}

func ParseRequestType(raw string) (RequestType, error) {
	switch RequestType(strings.ToUpper(strings.TrimSpace(raw))) {
	case RequestTypeUrgent:
		return RequestTypeUrgent, nil
	case RequestTypeNormal, "":
		return RequestTypeNormal, nil
	case RequestTypeEconomie:
		return RequestTypeEconomie, nil
	default:
		return "", fmt.Errorf("%w: unsupported request type %q", ErrInvalidInput, raw)
	}
}

func ParseSexPreference(raw string) (SexPreference, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return SexPreferenceNone, nil
	case "M", "HOMME":
		return SexPreferenceMale, nil
	case "F", "FEMME":
		return SexPreferenceFemale, nil
	default:
		return "", fmt.Errorf("%w: unsupported sex preference %q", ErrInvalidInput, raw)
	}
}

// UrgencyScore is computed once at creation from the request type and lead time.
func UrgencyScore(t RequestType, desiredStart, createdAt time.Time) int {
	score := 20
	switch t {
	case RequestTypeUrgent:
		score = 80
	case RequestTypeNormal:
		score = 50
	}
	if desiredStart.Sub(createdAt) <= 24*time.Hour {
		score += 20
	}
	return clampInt(score, 0, 100)
}

func ValidateRequestWindow(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("%w: desired start is required", ErrInvalidInput)
	}
	if end != nil && end.Before(start) {
		return fmt.Errorf("%w: desired end must not be before desired start", ErrInvalidInput)
	}
	return nil
}

// Suggestion is the last auto-rematch result for a request. It is advisory and
// may be dropped at any time.
type Suggestion struct {
	RequestID    uuid.UUID
	CaregiverIDs []uuid.UUID
	TriggeredAt  time.Time
}

func (s Suggestion) SameCaregivers(ids []uuid.UUID) bool {
	if len(s.CaregiverIDs) != len(ids) {
		return false
	}
	for i := range ids {
		if s.CaregiverIDs[i] != ids[i] {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
