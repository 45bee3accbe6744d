package postgres

import (
	"strings"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

func toDomainRequest(m requestModel) domain.Request {
	return domain.Request{
		RequestID: m.RequestID, PatientID: m.PatientID, Type: domain.RequestType(m.Type),
		PatientType: m.PatientType, NeedDescription: m.NeedDescription,
		DesiredStart: m.DesiredStart.UTC(), DesiredEnd: utcPtr(m.DesiredEnd), MaxBudget: m.MaxBudget,
		SexPreference: domain.SexPreference(m.SexPreference), CertificationRequired: m.CertificationRequired,
		Latitude: m.Latitude, Longitude: m.Longitude, Address: m.Address, City: m.City,
		UrgencyScore: m.UrgencyScore, Status: domain.RequestStatus(m.Status), Version: m.Version,
		CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func fromDomainRequest(r domain.Request) requestModel {
	return requestModel{
		RequestID: r.RequestID, PatientID: r.PatientID, Type: string(r.Type),
		PatientType: r.PatientType, NeedDescription: r.NeedDescription,
		DesiredStart: r.DesiredStart.UTC(), DesiredEnd: utcPtr(r.DesiredEnd), MaxBudget: r.MaxBudget,
		SexPreference: string(r.SexPreference), CertificationRequired: r.CertificationRequired,
		Latitude: r.Latitude, Longitude: r.Longitude, Address: r.Address, City: r.City,
		UrgencyScore: r.UrgencyScore, Status: string(r.Status), Version: r.Version,
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toDomainMission(m missionModel) domain.Mission {
	out := domain.Mission{
		MissionID: m.MissionID, RequestID: m.RequestID, CaregiverID: m.CaregiverID, Title: m.Title,
		StartsAt: utcPtr(m.StartsAt), EndsAt: utcPtr(m.EndsAt), Status: domain.MissionStatus(m.Status),
		ArchivedAt: utcPtr(m.ArchivedAt), ArchiveReason: m.ArchiveReason,
		CheckInAt: utcPtr(m.CheckInAt), CheckOutAt: utcPtr(m.CheckOutAt),
		LatitudeCheckin: m.LatitudeCheckin, LongitudeCheckin: m.LongitudeCheckin,
		LatitudeCheckout: m.LatitudeCheckout, LongitudeCheckout: m.LongitudeCheckout,
		ProofPhotoData: m.ProofPhotoData, SignatureData: m.SignatureData, PDFFilePath: m.PDFFilePath,
		FinalPrice: m.FinalPrice, Version: m.Version, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.FinalStatus != nil {
		fs := domain.FinalStatus(*m.FinalStatus)
		out.FinalStatus = &fs
	}
	if m.StatusVerification != nil {
		vs := domain.VerificationStatus(*m.StatusVerification)
		out.StatusVerification = &vs
	}
	return out
}

func fromDomainMission(m domain.Mission) missionModel {
	out := missionModel{
		MissionID: m.MissionID, RequestID: m.RequestID, CaregiverID: m.CaregiverID, Title: m.Title,
		StartsAt: utcPtr(m.StartsAt), EndsAt: utcPtr(m.EndsAt), Status: string(m.Status),
		ArchivedAt: utcPtr(m.ArchivedAt), ArchiveReason: m.ArchiveReason,
		CheckInAt: utcPtr(m.CheckInAt), CheckOutAt: utcPtr(m.CheckOutAt),
		LatitudeCheckin: m.LatitudeCheckin, LongitudeCheckin: m.LongitudeCheckin,
		LatitudeCheckout: m.LatitudeCheckout, LongitudeCheckout: m.LongitudeCheckout,
		ProofPhotoData: m.ProofPhotoData, SignatureData: m.SignatureData, PDFFilePath: m.PDFFilePath,
		FinalPrice: m.FinalPrice, Version: m.Version, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.FinalStatus != nil {
		fs := string(*m.FinalStatus)
		out.FinalStatus = &fs
	}
	if m.StatusVerification != nil {
		vs := string(*m.StatusVerification)
		out.StatusVerification = &vs
	}
	return out
}

func toDomainCaregiver(m caregiverModel) domain.Caregiver {
	return domain.Caregiver{
		CaregiverID: m.CaregiverID, UserID: m.UserID, DisplayName: m.DisplayName,
		Validated: m.Validated, Available: m.Available, ExperienceLevel: m.ExperienceLevel,
		MinRate: m.MinRate, City: m.City, InterventionRadiusKm: m.InterventionRadiusKm,
		AcceptedPatientTypes: m.AcceptedPatientTypes, Sex: domain.CaregiverSex(m.Sex),
	}
}

func toDomainSuggestion(m suggestionModel) domain.Suggestion {
	ids := []uuid.UUID{}
	for _, raw := range strings.Split(m.CaregiverIDs, ",") {
		if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
			ids = append(ids, id)
		}
	}
	return domain.Suggestion{RequestID: m.RequestID, CaregiverIDs: ids, TriggeredAt: m.TriggeredAt.UTC()}
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func toOutboxRecord(m outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		RequestID:    m.RequestID,
		MissionID:    m.MissionID,
		PartitionKey: m.PartitionKey,
		Payload:      []byte(m.Payload),
		RetryCount:   m.RetryCount,
		PublishedAt:  m.PublishedAt,
		LastError:    m.LastError,
		LastErrorAt:  m.LastErrorAt,
		FirstSeenAt:  m.FirstSeenAt,
	}
}
