package postgres

import (
	"time"

	"github.com/google/uuid"
)

type requestModel struct {
	RequestID             uuid.UUID  `gorm:"column:request_id;type:uuid;primaryKey"`
	PatientID             uuid.UUID  `gorm:"column:patient_id;type:uuid;index"`
	Type                  string     `gorm:"column:type"`
	PatientType           string     `gorm:"column:patient_type"`
	NeedDescription       string     `gorm:"column:need_description"`
	DesiredStart          time.Time  `gorm:"column:desired_start;index"`
	DesiredEnd            *time.Time `gorm:"column:desired_end"`
	MaxBudget             int        `gorm:"column:max_budget"`
	SexPreference         string     `gorm:"column:sex_preference"`
	CertificationRequired bool       `gorm:"column:certification_required"`
	Latitude              *float64   `gorm:"column:latitude"`
	Longitude             *float64   `gorm:"column:longitude"`
	Address               string     `gorm:"column:address"`
	City                  string     `gorm:"column:city"`
	UrgencyScore          int        `gorm:"column:urgency_score"`
	Status                string     `gorm:"column:status;index"`
	Version               int64      `gorm:"column:version"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (requestModel) TableName() string { return "care_requests" }

type missionModel struct {
	MissionID          uuid.UUID  `gorm:"column:mission_id;type:uuid;primaryKey"`
	RequestID          uuid.UUID  `gorm:"column:request_id;type:uuid;index"`
	CaregiverID        *uuid.UUID `gorm:"column:caregiver_id;type:uuid;index"`
	Title              string     `gorm:"column:title"`
	StartsAt           *time.Time `gorm:"column:starts_at"`
	EndsAt             *time.Time `gorm:"column:ends_at"`
	Status             string     `gorm:"column:status"`
	FinalStatus        *string    `gorm:"column:final_status"`
	ArchivedAt         *time.Time `gorm:"column:archived_at"`
	ArchiveReason      string     `gorm:"column:archive_reason"`
	CheckInAt          *time.Time `gorm:"column:check_in_at"`
	CheckOutAt         *time.Time `gorm:"column:check_out_at"`
	LatitudeCheckin    *float64   `gorm:"column:latitude_checkin"`
	LongitudeCheckin   *float64   `gorm:"column:longitude_checkin"`
	LatitudeCheckout   *float64   `gorm:"column:latitude_checkout"`
	LongitudeCheckout  *float64   `gorm:"column:longitude_checkout"`
	StatusVerification *string    `gorm:"column:status_verification"`
	ProofPhotoData     string     `gorm:"column:proof_photo_data"`
	SignatureData      string     `gorm:"column:signature_data"`
	PDFFilePath        string     `gorm:"column:pdf_file_path"`
	PDFGeneratedAt     *time.Time `gorm:"column:pdf_generated_at"`
	FinalPrice         *int       `gorm:"column:final_price"`
	Version            int64      `gorm:"column:version"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (missionModel) TableName() string { return "missions" }

type caregiverModel struct {
	CaregiverID          uuid.UUID `gorm:"column:caregiver_id;type:uuid;primaryKey"`
	UserID               uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	DisplayName          string    `gorm:"column:display_name"`
	Validated            bool      `gorm:"column:validated"`
	Available            bool      `gorm:"column:available"`
	ExperienceLevel      int       `gorm:"column:experience_level"`
	MinRate              int       `gorm:"column:min_rate"`
	City                 string    `gorm:"column:city"`
	InterventionRadiusKm float64   `gorm:"column:intervention_radius_km"`
	AcceptedPatientTypes string    `gorm:"column:accepted_patient_types"`
	Sex                  string    `gorm:"column:sex"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (caregiverModel) TableName() string { return "caregivers" }

type suggestionModel struct {
	RequestID    uuid.UUID `gorm:"column:request_id;type:uuid;primaryKey"`
	CaregiverIDs string    `gorm:"column:caregiver_ids"`
	TriggeredAt  time.Time `gorm:"column:triggered_at"`
}

func (suggestionModel) TableName() string { return "request_suggestions" }

type jobRunModel struct {
	JobName   string    `gorm:"column:job_name;primaryKey"`
	LastRunAt time.Time `gorm:"column:last_run_at"`
	Summary   string    `gorm:"column:summary"`
}

func (jobRunModel) TableName() string { return "job_runs" }

type outboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	RequestID        uuid.UUID  `gorm:"column:request_id;type:uuid"`
	MissionID        *uuid.UUID `gorm:"column:mission_id;type:uuid"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "mission_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "mission_idempotency" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	RequestID   uuid.UUID `gorm:"column:request_id;type:uuid"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "mission_event_dedup" }
