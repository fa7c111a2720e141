package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/repository"
)

// ResolvedRecipient is a patient with a confirmed delivery address.
type ResolvedRecipient struct {
	PatientID   string
	PushToken   string
	DisplayName string
}

// RecipientResolver looks up a patient's push token and display name. It is a
// read-only query with no retry policy of its own.
type RecipientResolver struct {
	patients repository.PatientRepository
}

func NewRecipientResolver(patients repository.PatientRepository) (*RecipientResolver, error) {
	if patients == nil {
		return nil, fmt.Errorf("patient repository is required")
	}
	return &RecipientResolver{patients: patients}, nil
}

// Resolve returns domain.ErrNotFound when the profile is absent and
// domain.ErrNoDeliveryAddress when the profile has no push token.
func (r *RecipientResolver) Resolve(ctx context.Context, patientID string) (*ResolvedRecipient, error) {
	trimmedID := strings.TrimSpace(patientID)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: patient id is required", domain.ErrValidation)
	}

	profile, err := r.patients.GetByID(ctx, trimmedID)
	if err != nil {
		return nil, err
	}

	if !profile.HasPushToken() {
		return nil, fmt.Errorf("%w: patient %s has no push token", domain.ErrNoDeliveryAddress, trimmedID)
	}

	return &ResolvedRecipient{
		PatientID:   trimmedID,
		PushToken:   profile.PushToken,
		DisplayName: profile.DisplayName,
	}, nil
}
