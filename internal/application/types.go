package application

import (
	"time"

	"github.com/carelink/mission-service/internal/domain"
)

type Config struct {
	ServiceName           string
	CheckInTolerance      time.Duration
	GeofenceMeters        float64
	MissionGracePeriod    time.Duration
	PriceTolerance        int
	DefaultMatchLimit     int
	MaxMatchLimit         int
	MatchCacheTTL         time.Duration
	PlaceholderDistanceKm float64
	SweepInterval         time.Duration
	SweepLockTTL          time.Duration
	SweepBatchSize        int
	DefaultAlertLimit     int
	IdempotencyTTL        time.Duration
	EventDedupTTL         time.Duration
}

type CreateRequestInput struct {
	PatientID             string   `json:"patientId,omitempty"`
	Type                  string   `json:"type"`
	PatientType           string   `json:"patientType"`
	NeedDescription       string   `json:"needDescription"`
	DesiredStart          string   `json:"desiredStart"`
	DesiredEnd            string   `json:"desiredEnd,omitempty"`
	MaxBudget             int      `json:"maxBudget"`
	SexPreference         string   `json:"sexPreference,omitempty"`
	CertificationRequired bool     `json:"certificationRequired"`
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	Address               string   `json:"address,omitempty"`
	City                  string   `json:"city,omitempty"`
}

type AssignCaregiverInput struct {
	CaregiverID string `json:"caregiverId"`
	Title       string `json:"title,omitempty"`
}

// VerificationInput is the check-in/check-out payload once the transport has
// decoded it. A nil coordinate means it was missing or not numeric.
type VerificationInput struct {
	Latitude       *float64
	Longitude      *float64
	Consent        bool
	ProofPhotoData string
	SignatureData  string
}

type RequestView struct {
	RequestID               string     `json:"id"`
	PatientID               string     `json:"patientId"`
	Type                    string     `json:"type"`
	PatientType             string     `json:"patientType"`
	NeedDescription         string     `json:"needDescription,omitempty"`
	DesiredStart            time.Time  `json:"desiredStart"`
	DesiredEnd              *time.Time `json:"desiredEnd,omitempty"`
	MaxBudget               int        `json:"maxBudget"`
	SexPreference           string     `json:"sexPreference,omitempty"`
	CertificationRequired   bool       `json:"certificationRequired"`
	Latitude                *float64   `json:"latitude,omitempty"`
	Longitude               *float64   `json:"longitude,omitempty"`
	Address                 string     `json:"address,omitempty"`
	City                    string     `json:"city,omitempty"`
	UrgencyScore            int        `json:"urgencyScore"`
	Status                  string     `json:"status"`
	SuggestedCaregiverIDs   []string   `json:"suggestedCaregiverIds"`
	AutoMatchingTriggeredAt *time.Time `json:"autoMatchingTriggeredAt,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

type MissionView struct {
	MissionID          string     `json:"id"`
	RequestID          string     `json:"requestId"`
	CaregiverID        string     `json:"caregiverId,omitempty"`
	Title              string     `json:"title"`
	StartsAt           *time.Time `json:"startsAt,omitempty"`
	EndsAt             *time.Time `json:"endsAt,omitempty"`
	Status             string     `json:"status"`
	FinalStatus        string     `json:"finalStatus,omitempty"`
	ArchivedAt         *time.Time `json:"archivedAt,omitempty"`
	ArchiveReason      string     `json:"archiveReason,omitempty"`
	CheckInAt          *time.Time `json:"checkInAt,omitempty"`
	CheckOutAt         *time.Time `json:"checkOutAt,omitempty"`
	StatusVerification string     `json:"statusVerification,omitempty"`
	PDFFilePath        string     `json:"pdfFilePath,omitempty"`
	FinalPrice         *int       `json:"finalPrice,omitempty"`
}

type SuggestionView struct {
	RequestID    string     `json:"requestId"`
	CaregiverIDs []string   `json:"caregiverIds"`
	TriggeredAt  *time.Time `json:"triggeredAt,omitempty"`
}

type CheckInResult struct {
	MissionID          string    `json:"missionId"`
	CheckInAt          time.Time `json:"checkInAt"`
	StatusVerification string    `json:"statusVerification"`
}

type CheckOutResult struct {
	MissionID          string    `json:"missionId"`
	CheckOutAt         time.Time `json:"checkOutAt"`
	StatusVerification string    `json:"statusVerification"`
	DistanceMeters     float64   `json:"distanceMeters"`
	ThresholdMeters    float64   `json:"thresholdMeters"`
	FinalStatus        string    `json:"finalStatus"`
}

type MatchView struct {
	CaregiverID     string `json:"caregiverId"`
	DisplayName     string `json:"displayName,omitempty"`
	City            string `json:"city,omitempty"`
	ExperienceLevel int    `json:"experienceLevel"`
	MinRate         int    `json:"minRate"`
	Score           int    `json:"score"`
	Available       bool   `json:"available"`
}

type AvailabilityView struct {
	CaregiverID string    `json:"caregiverId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Available   bool      `json:"available"`
}

type ReliabilityView struct {
	CaregiverID       string   `json:"caregiverId"`
	Score             int      `json:"score"`
	TotalMissions     int      `json:"totalMissions"`
	CompletedMissions int      `json:"completedMissions"`
	FailedMissions    int      `json:"failedMissions"`
	SuspiciousChecks  int      `json:"suspiciousCheckouts"`
	Flags             []string `json:"flags"`
}

type RequestRiskView struct {
	RequestID string   `json:"requestId"`
	Score     int      `json:"score"`
	Level     string   `json:"level"`
	Reasons   []string `json:"reasons"`
}

type AlertView struct {
	Type      string `json:"type"`
	SubjectID string `json:"subjectId"`
	Severity  int    `json:"severity"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type SweepReport struct {
	MissionsCompleted int `json:"missionsCompleted"`
	MissionsExpired   int `json:"missionsExpired"`
	RequestsExpired   int `json:"requestsExpired"`
	Conflicts         int `json:"conflicts"`
}

func (r SweepReport) Changed() int {
	return r.MissionsCompleted + r.MissionsExpired + r.RequestsExpired
}

func toRequestView(req domain.Request, suggestion *domain.Suggestion) RequestView {
	view := RequestView{
		RequestID:             req.RequestID.String(),
		PatientID:             req.PatientID.String(),
		Type:                  string(req.Type),
		PatientType:           req.PatientType,
		NeedDescription:       req.NeedDescription,
		DesiredStart:          req.DesiredStart,
		DesiredEnd:            req.DesiredEnd,
		MaxBudget:             req.MaxBudget,
		SexPreference:         string(req.SexPreference),
		CertificationRequired: req.CertificationRequired,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		Address:               req.Address,
		City:                  req.City,
		UrgencyScore:          req.UrgencyScore,
		Status:                string(req.Status),
		SuggestedCaregiverIDs: []string{},
		CreatedAt:             req.CreatedAt,
		UpdatedAt:             req.UpdatedAt,
	}
	if suggestion != nil {
		for _, id := range suggestion.CaregiverIDs {
			view.SuggestedCaregiverIDs = append(view.SuggestedCaregiverIDs, id.String())
		}
		at := suggestion.TriggeredAt
		view.AutoMatchingTriggeredAt = &at
	}
	return view
}

func toMissionView(m domain.Mission) MissionView {
	view := MissionView{
		MissionID:     m.MissionID.String(),
		RequestID:     m.RequestID.String(),
		Title:         m.Title,
		StartsAt:      m.StartsAt,
		EndsAt:        m.EndsAt,
		Status:        string(m.Status),
		ArchivedAt:    m.ArchivedAt,
		ArchiveReason: m.ArchiveReason,
		CheckInAt:     m.CheckInAt,
		CheckOutAt:    m.CheckOutAt,
		PDFFilePath:   m.PDFFilePath,
		FinalPrice:    m.FinalPrice,
	}
	if m.CaregiverID != nil {
		view.CaregiverID = m.CaregiverID.String()
	}
	if m.FinalStatus != nil {
		view.FinalStatus = string(*m.FinalStatus)
	}
	if m.StatusVerification != nil {
		view.StatusVerification = string(*m.StatusVerification)
	}
	return view
}
