package ports

import (
	"context"
	"time"
)

type MissionReport struct {
	MissionID          string    `json:"mission_id"`
	RequestID          string    `json:"request_id"`
	CaregiverID        string    `json:"caregiver_id"`
	Title              string    `json:"title"`
	CheckInAt          time.Time `json:"check_in_at"`
	CheckOutAt         time.Time `json:"check_out_at"`
	StatusVerification string    `json:"status_verification"`
	DistanceMeters     float64   `json:"distance_meters"`
	HasProofPhoto      bool      `json:"has_proof_photo"`
	HasSignature       bool      `json:"has_signature"`
}

type ReportGenerator interface {
	GenerateMissionReport(ctx context.Context, report MissionReport) (path string, err error)
}
