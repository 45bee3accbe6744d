package domain

import "github.com/google/uuid"

type ActorKind string

const (
	ActorKindCaregiver ActorKind = "caregiver"
	ActorKindPatient   ActorKind = "patient"
	ActorKindDoctor    ActorKind = "doctor"
	ActorKindAdmin     ActorKind = "admin"
)

// Actor is the authenticated account behind a call, resolved once per request.
type Actor interface {
	Kind() ActorKind
	AccountID() uuid.UUID
}

type CaregiverActor struct {
	UserID      uuid.UUID
	CaregiverID uuid.UUID
}

func (a CaregiverActor) Kind() ActorKind      { return ActorKindCaregiver }
func (a CaregiverActor) AccountID() uuid.UUID { return a.UserID }

type PatientActor struct {
	UserID    uuid.UUID
	PatientID uuid.UUID
}

func (a PatientActor) Kind() ActorKind      { return ActorKindPatient }
func (a PatientActor) AccountID() uuid.UUID { return a.UserID }

type DoctorActor struct {
	UserID   uuid.UUID
	DoctorID uuid.UUID
}

func (a DoctorActor) Kind() ActorKind      { return ActorKindDoctor }
func (a DoctorActor) AccountID() uuid.UUID { return a.UserID }

type AdminActor struct {
	UserID uuid.UUID
}

func (a AdminActor) Kind() ActorKind      { return ActorKindAdmin }
func (a AdminActor) AccountID() uuid.UUID { return a.UserID }

func IsAdmin(a Actor) bool {
	_, ok := a.(AdminActor)
	return ok
}

// AsCaregiver fails with AIDE_REQUIRED for any other account kind.
func AsCaregiver(a Actor) (CaregiverActor, error) {
	if c, ok := a.(CaregiverActor); ok {
		return c, nil
	}
	return CaregiverActor{}, NewCodedError(ErrForbidden, CodeAideRequired, "a caregiver account is required")
}
