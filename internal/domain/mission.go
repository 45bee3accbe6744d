package domain

import (
	"time"

	"github.com/google/uuid"
)

type MissionStatus string

const (
	MissionStatusPending   MissionStatus = "EN_ATTENTE"
	MissionStatusAccepted  MissionStatus = "ACCEPTÉE"
	MissionStatusCancelled MissionStatus = "ANNULÉE"
	MissionStatusExpired   MissionStatus = "EXPIRÉE"
)

type FinalStatus string

const (
	FinalStatusCompleted FinalStatus = "TERMINÉE"
	FinalStatusExpired   FinalStatus = "EXPIRÉE"
	FinalStatusCancelled FinalStatus = "ANNULÉE"
)

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "PENDING"
	VerificationValidated VerificationStatus = "VALIDEE"
	VerificationSuspect   VerificationStatus = "SUSPECTE"
)

type Mission struct {
	MissionID          uuid.UUID
	RequestID          uuid.UUID
	CaregiverID        *uuid.UUID
	Title              string
	StartsAt           *time.Time
	EndsAt             *time.Time
	Status             MissionStatus
	FinalStatus        *FinalStatus
	ArchivedAt         *time.Time
	ArchiveReason      string
	CheckInAt          *time.Time
	CheckOutAt         *time.Time
	LatitudeCheckin    *float64
	LongitudeCheckin   *float64
	LatitudeCheckout   *float64
	LongitudeCheckout  *float64
	StatusVerification *VerificationStatus
	ProofPhotoData     string
	SignatureData      string
	PDFFilePath        string
	FinalPrice         *int
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (m Mission) IsArchived() bool {
	return m.FinalStatus != nil
}

// IsActive reports whether the mission still holds its request: not archived and
// in a status that blocks another assignment.
func (m Mission) IsActive() bool {
	return !m.IsArchived() && (m.Status == MissionStatusPending || m.Status == MissionStatusAccepted)
}

func (m Mission) AssignedTo(caregiverID uuid.UUID) bool {
	return m.CaregiverID != nil && *m.CaregiverID == caregiverID
}

// Window returns the planned [start, end]; a missing end collapses to start.
func (m Mission) Window() (time.Time, time.Time, bool) {
	if m.StartsAt == nil {
		return time.Time{}, time.Time{}, false
	}
	if m.EndsAt == nil {
		return *m.StartsAt, *m.StartsAt, true
	}
	return *m.StartsAt, *m.EndsAt, true
}

func (m *Mission) ensureMutable() error {
	if m.IsArchived() {
		return NewCodedError(ErrPrecondition, CodeMissionArchived, "mission %s is archived", m.MissionID)
	}
	return nil
}

// Accept is the caregiver's acknowledgement of an assignment.
func (m *Mission) Accept(at time.Time) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	if m.Status != MissionStatusPending {
		return NewCodedError(ErrPrecondition, CodeConflict, "mission is %s, only pending missions can be accepted", m.Status)
	}
	m.Status = MissionStatusAccepted
	m.UpdatedAt = at
	return nil
}

// Archive freezes the mission with its final status. Archival happens exactly once.
func (m *Mission) Archive(final FinalStatus, reason string, at time.Time) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	switch final {
	case FinalStatusCancelled:
		m.Status = MissionStatusCancelled
	case FinalStatusExpired:
		m.Status = MissionStatusExpired
	}
	fs := final
	archivedAt := at
	m.FinalStatus = &fs
	m.ArchivedAt = &archivedAt
	m.ArchiveReason = reason
	m.UpdatedAt = at
	return nil
}

func (m *Mission) RecordCheckIn(point GeoPoint, at time.Time) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	if m.CheckInAt != nil {
		return NewCodedError(ErrConflict, CodeAlreadyCheckedIn, "mission already checked in at %s", m.CheckInAt.Format(time.RFC3339))
	}
	lat, lng := point.Latitude, point.Longitude
	checkInAt := at
	pending := VerificationPending
	m.CheckInAt = &checkInAt
	m.LatitudeCheckin = &lat
	m.LongitudeCheckin = &lng
	m.StatusVerification = &pending
	m.UpdatedAt = at
	return nil
}

type CheckOutRecord struct {
	Point          GeoPoint
	Classification VerificationStatus
	ProofPhotoData string
	SignatureData  string
}

// RecordCheckOut stores the check-out and archives the mission as completed.
func (m *Mission) RecordCheckOut(rec CheckOutRecord, at time.Time) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	if m.CheckInAt == nil {
		return NewCodedError(ErrConflict, CodeCheckinRequired, "check-in is required before check-out")
	}
	if m.CheckOutAt != nil {
		return NewCodedError(ErrConflict, CodeAlreadyCheckedOut, "mission already checked out at %s", m.CheckOutAt.Format(time.RFC3339))
	}
	lat, lng := rec.Point.Latitude, rec.Point.Longitude
	checkOutAt := at
	classification := rec.Classification
	m.CheckOutAt = &checkOutAt
	m.LatitudeCheckout = &lat
	m.LongitudeCheckout = &lng
	m.StatusVerification = &classification
	if rec.ProofPhotoData != "" {
		m.ProofPhotoData = rec.ProofPhotoData
	}
	if rec.SignatureData != "" {
		m.SignatureData = rec.SignatureData
	}
	return m.Archive(FinalStatusCompleted, "checked out", at)
}

func (m *Mission) SetFinalPrice(price, budget, tolerance int, at time.Time) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	if price < 0 || price > budget+tolerance {
		return NewCodedError(ErrInvalidInput, CodePriceOutOfRange, "price must be between 0 and %d", budget+tolerance)
	}
	p := price
	m.FinalPrice = &p
	m.UpdatedAt = at
	return nil
}

// IntervalsOverlap uses inclusive bounds on both sides.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
