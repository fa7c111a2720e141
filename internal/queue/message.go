package queue

import (
	"fmt"
	"strings"

	"github.com/smartdoc/queue-notifier/internal/domain"
)

// EntrySnapshot is one side of a queue-entry write as the event source saw it.
type EntrySnapshot struct {
	Status      string `json:"status"`
	QueueNumber *int   `json:"queueNumber,omitempty"`
}

// QueueUpdateMessage is the broker payload delivered for every queue-entry
// document write. Before and after may carry the same status; deciding
// whether that warrants a notification is the handler's job, not the
// consumer's.
type QueueUpdateMessage struct {
	CorrelationID string        `json:"correlationId,omitempty"`
	DoctorID      string        `json:"doctorId"`
	PatientID     string        `json:"patientId"`
	Before        EntrySnapshot `json:"before"`
	After         EntrySnapshot `json:"after"`
}

// Validate rejects only structurally unusable payloads. Events with missing
// status or ids are deliberately let through: the notifier treats them as
// documented no-ops rather than poison messages.
func (m QueueUpdateMessage) Validate() error {
	if strings.TrimSpace(m.DoctorID) == "" && strings.TrimSpace(m.PatientID) == "" &&
		m.Before.Status == "" && m.After.Status == "" {
		return fmt.Errorf("queue update message is empty")
	}
	return nil
}

// Entries converts the snapshots into domain queue entries.
func (m QueueUpdateMessage) Entries() (before, after domain.QueueEntry) {
	before = domain.QueueEntry{
		DoctorID:    m.DoctorID,
		PatientID:   m.PatientID,
		Status:      domain.QueueStatus(m.Before.Status),
		QueueNumber: m.Before.QueueNumber,
	}
	after = domain.QueueEntry{
		DoctorID:    m.DoctorID,
		PatientID:   m.PatientID,
		Status:      domain.QueueStatus(m.After.Status),
		QueueNumber: m.After.QueueNumber,
	}
	return before, after
}
