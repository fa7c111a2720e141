package domain

import "strings"

// QueueStatus is the lifecycle state of a patient inside a doctor's queue.
// The queue-management system owns the value; unrecognized strings are kept
// verbatim and composed with the fallback template.
type QueueStatus string

const (
	StatusWaiting    QueueStatus = "waiting"
	StatusInProgress QueueStatus = "inProgress"
	StatusDone       QueueStatus = "done"
	StatusCancelled  QueueStatus = "cancelled"
)

func (s QueueStatus) String() string { return string(s) }

// IsKnown reports whether the status is one of the four catalogued states.
func (s QueueStatus) IsKnown() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

func (s QueueStatus) IsEmpty() bool {
	return strings.TrimSpace(string(s)) == ""
}

// SourceType identifies which dispatch path produced a delivery outcome.
type SourceType string

const (
	SourceStateChange SourceType = "STATE_CHANGE"
	SourceCustom      SourceType = "CUSTOM"
	SourceBulk        SourceType = "BULK"
)

func (t SourceType) String() string { return string(t) }

func (t SourceType) IsValid() bool {
	switch t {
	case SourceStateChange, SourceCustom, SourceBulk:
		return true
	}
	return false
}
