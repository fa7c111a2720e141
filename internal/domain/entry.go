package domain

// QueueEntry is a patient's record within a doctor's service queue. It is
// owned and mutated by the queue-management system; the dispatch engine only
// observes before/after snapshots on update.
type QueueEntry struct {
	DoctorID    string
	PatientID   string
	Status      QueueStatus
	QueueNumber *int
}

// PatientProfile is the read-only recipient record the resolver looks up.
type PatientProfile struct {
	PatientID   string
	DisplayName string
	PushToken   string
}

// HasPushToken reports whether the profile carries a usable delivery address.
func (p PatientProfile) HasPushToken() bool {
	return p.PushToken != ""
}
