package domain

import (
	"regexp"
	"time"
)

const (
	DefaultCheckInTolerance   = 30 * time.Minute
	DefaultGeofenceMeters     = 200.0
	MaxProofDataLength        = 6000000
	DefaultMissionGracePeriod = 30 * time.Minute
)

var proofDataURIPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,[A-Za-z0-9+/=\r\n]+$`)

// CheckInWindow is the inclusive interval around the planned start in which a
// caregiver may check in.
type CheckInWindow struct {
	From time.Time
	To   time.Time
}

func NewCheckInWindow(plannedStart time.Time, tolerance time.Duration) CheckInWindow {
	return CheckInWindow{From: plannedStart.Add(-tolerance), To: plannedStart.Add(tolerance)}
}

func (w CheckInWindow) Contains(at time.Time) bool {
	return !at.Before(w.From) && !at.After(w.To)
}

func (w CheckInWindow) Check(at time.Time) error {
	if w.Contains(at) {
		return nil
	}
	return NewCodedError(ErrPrecondition, CodeOutsideTimeWindow,
		"check-in is only allowed between %s and %s", w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
}

func validProofData(v string) bool {
	return len(v) <= MaxProofDataLength && proofDataURIPattern.MatchString(v)
}

// ValidateProofPhoto accepts an empty value (the proof is optional).
func ValidateProofPhoto(v string) error {
	if v == "" || validProofData(v) {
		return nil
	}
	return NewCodedError(ErrInvalidInput, CodeInvalidProofPhoto, "proof photo must be a png, jpeg or webp data URI of at most %d characters", MaxProofDataLength)
}

func ValidateSignature(v string) error {
	if v == "" || validProofData(v) {
		return nil
	}
	return NewCodedError(ErrInvalidInput, CodeInvalidSignature, "signature must be a png, jpeg or webp data URI of at most %d characters", MaxProofDataLength)
}
