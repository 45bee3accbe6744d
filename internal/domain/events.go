package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventRequestNeedsReassignment = "care.request.needs_reassignment"
	EventMissionCompleted         = "care.mission.completed"
	EventRequestStatusChanged     = "care.request.status_changed"
)

type RequestNeedsReassignment struct {
	RequestID  uuid.UUID     `json:"request_id"`
	FromStatus RequestStatus `json:"from_status"`
	Reason     string        `json:"reason"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type MissionCompleted struct {
	MissionID          uuid.UUID          `json:"mission_id"`
	RequestID          uuid.UUID          `json:"request_id"`
	CaregiverID        uuid.UUID          `json:"caregiver_id"`
	StatusVerification VerificationStatus `json:"status_verification"`
	DistanceMeters     float64            `json:"distance_meters"`
	CheckOutAt         time.Time          `json:"check_out_at"`
}

type RequestStatusChanged struct {
	RequestID  uuid.UUID     `json:"request_id"`
	FromStatus RequestStatus `json:"from_status"`
	ToStatus   RequestStatus `json:"to_status"`
	Reason     string        `json:"reason"`
	OccurredAt time.Time     `json:"occurred_at"`
}
