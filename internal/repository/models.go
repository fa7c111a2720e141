package repository

import (
	"time"

	"github.com/smartdoc/queue-notifier/internal/domain"
)

// DeliveryRecordModel is the persistence model for the notifications ledger.
type DeliveryRecordModel struct {
	ID            string            `gorm:"type:uuid;primaryKey"`
	PatientID     string            `gorm:"type:varchar(128);not null"`
	DoctorID      string            `gorm:"type:varchar(128)"`
	SourceType    domain.SourceType `gorm:"type:varchar(20);not null"`
	StatusContext string            `gorm:"type:varchar(64);not null"`

	PreviousStatus *string `gorm:"type:varchar(64)"`
	NewStatus      *string `gorm:"type:varchar(64)"`

	Title     string `gorm:"type:text"`
	Body      string `gorm:"type:text"`
	PushToken string `gorm:"type:text"`

	SentBy    string            `gorm:"type:varchar(128)"`
	ExtraData map[string]string `gorm:"serializer:json"`

	Success          bool    `gorm:"not null"`
	MessageID        *string `gorm:"type:varchar(255)"`
	ErrorDescription *string `gorm:"type:text"`
	SentAt           time.Time
}

func (DeliveryRecordModel) TableName() string {
	return "notifications"
}

// PatientModel is the persistence model for patient profiles. The table is
// owned by the patient-registration system; this engine only reads it.
type PatientModel struct {
	ID          string `gorm:"type:varchar(128);primaryKey"`
	DisplayName string `gorm:"column:name;type:varchar(255)"`
	PushToken   string `gorm:"column:fcm_token;type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PatientModel) TableName() string {
	return "users"
}

func deliveryRecordFromDomain(o *domain.DeliveryOutcome) *DeliveryRecordModel {
	if o == nil {
		return nil
	}

	return &DeliveryRecordModel{
		ID:               o.ID,
		PatientID:        o.PatientID,
		DoctorID:         o.DoctorID,
		SourceType:       o.SourceType,
		StatusContext:    o.StatusContext,
		PreviousStatus:   statusToString(o.PreviousStatus),
		NewStatus:        statusToString(o.NewStatus),
		Title:            o.Title,
		Body:             o.Body,
		PushToken:        o.PushToken,
		SentBy:           o.SentBy,
		ExtraData:        o.ExtraData,
		Success:          o.Success,
		MessageID:        o.MessageID,
		ErrorDescription: o.ErrorDescription,
		SentAt:           o.SentAt,
	}
}

func deliveryRecordToDomain(m *DeliveryRecordModel) *domain.DeliveryOutcome {
	if m == nil {
		return nil
	}

	return &domain.DeliveryOutcome{
		ID:               m.ID,
		PatientID:        m.PatientID,
		DoctorID:         m.DoctorID,
		SourceType:       m.SourceType,
		StatusContext:    m.StatusContext,
		PreviousStatus:   statusFromString(m.PreviousStatus),
		NewStatus:        statusFromString(m.NewStatus),
		Title:            m.Title,
		Body:             m.Body,
		PushToken:        m.PushToken,
		SentBy:           m.SentBy,
		ExtraData:        m.ExtraData,
		Success:          m.Success,
		MessageID:        m.MessageID,
		ErrorDescription: m.ErrorDescription,
		SentAt:           m.SentAt,
	}
}

func patientToDomain(m *PatientModel) *domain.PatientProfile {
	if m == nil {
		return nil
	}

	return &domain.PatientProfile{
		PatientID:   m.ID,
		DisplayName: m.DisplayName,
		PushToken:   m.PushToken,
	}
}

func statusToString(s *domain.QueueStatus) *string {
	if s == nil {
		return nil
	}
	value := s.String()
	return &value
}

func statusFromString(s *string) *domain.QueueStatus {
	if s == nil {
		return nil
	}
	value := domain.QueueStatus(*s)
	return &value
}
