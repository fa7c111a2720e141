package domain

import (
	"fmt"
	"time"
)

// DeliveryOutcome is one immutable ledger record per dispatch attempt that
// reached the push gateway, success or failure. Records are created only by
// the dispatch engine and destroyed only by the retention sweeper.
type DeliveryOutcome struct {
	ID            string
	PatientID     string
	DoctorID      string
	SourceType    SourceType
	StatusContext string

	// Populated for state-triggered dispatch only.
	PreviousStatus *QueueStatus
	NewStatus      *QueueStatus

	Title     string
	Body      string
	PushToken string

	// Caller identity and extra payload, custom/bulk sends only.
	SentBy    string
	ExtraData map[string]string

	Success          bool
	MessageID        *string
	ErrorDescription *string
	SentAt           time.Time
}

// Validate enforces the outcome invariants: success implies a message id and
// no error description, failure the reverse.
func (o *DeliveryOutcome) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: outcome is required", ErrValidation)
	}
	if o.PatientID == "" {
		return fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if !o.SourceType.IsValid() {
		return fmt.Errorf("%w: invalid source type %q", ErrValidation, o.SourceType)
	}
	if o.Success {
		if o.MessageID == nil || *o.MessageID == "" {
			return fmt.Errorf("%w: successful outcome requires a message id", ErrValidation)
		}
		if o.ErrorDescription != nil {
			return fmt.Errorf("%w: successful outcome must not carry an error description", ErrValidation)
		}
		return nil
	}
	if o.ErrorDescription == nil || *o.ErrorDescription == "" {
		return fmt.Errorf("%w: failed outcome requires an error description", ErrValidation)
	}
	if o.MessageID != nil {
		return fmt.Errorf("%w: failed outcome must not carry a message id", ErrValidation)
	}
	return nil
}
