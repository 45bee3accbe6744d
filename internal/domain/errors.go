package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrPrecondition          = errors.New("precondition failed")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

const (
	CodeMissionNotFound        = "MISSION_NOT_FOUND"
	CodeRequestNotFound        = "REQUEST_NOT_FOUND"
	CodeCaregiverNotFound      = "CAREGIVER_NOT_FOUND"
	CodeAideRequired           = "AIDE_REQUIRED"
	CodeNotOwner               = "NOT_OWNER"
	CodeMissionNotAccepted     = "MISSION_NOT_ACCEPTED"
	CodeMissionArchived        = "MISSION_ARCHIVED"
	CodeMissionNotArchived     = "MISSION_NOT_ARCHIVED"
	CodeAlreadyCheckedIn       = "ALREADY_CHECKED_IN"
	CodeAlreadyCheckedOut      = "ALREADY_CHECKED_OUT"
	CodeCheckinRequired        = "CHECKIN_REQUIRED"
	CodeNoStartDate            = "NO_START_DATE"
	CodeOutsideTimeWindow      = "OUTSIDE_TIME_WINDOW"
	CodeConsentRequired        = "CONSENT_REQUIRED"
	CodeInvalidCoordinates     = "INVALID_COORDINATES"
	CodeOutOfRangeCoordinates  = "OUT_OF_RANGE_COORDINATES"
	CodeInvalidProofPhoto      = "INVALID_PROOF_PHOTO"
	CodeInvalidSignature       = "INVALID_SIGNATURE"
	CodePatientLocationMissing = "PATIENT_LOCATION_MISSING"
	CodeRequestTerminal        = "REQUEST_TERMINAL"
	CodeRequestNotAssignable   = "REQUEST_NOT_ASSIGNABLE"
	CodeActiveMissionExists    = "ACTIVE_MISSION_EXISTS"
	CodeRequestHasMissions     = "REQUEST_HAS_MISSIONS"
	CodeCaregiverUnavailable   = "CAREGIVER_UNAVAILABLE"
	CodeCaregiverNotValidated  = "CAREGIVER_NOT_VALIDATED"
	CodePriceOutOfRange        = "PRICE_OUT_OF_RANGE"
	CodeValidation             = "VALIDATION_ERROR"
	CodeConflict               = "CONFLICT"
	CodeForbidden              = "FORBIDDEN"
)

// CodedError carries a stable machine-readable code on top of one of the
// sentinel kinds above, so callers can still match with errors.Is.
type CodedError struct {
	Code    string
	Kind    error
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

func (e *CodedError) Unwrap() error {
	return e.Kind
}

func NewCodedError(kind error, code, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode returns the code of the first CodedError in err's chain.
func ErrorCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}
