package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/smartdoc/queue-notifier/internal/domain"
)

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		patientID string
		repo      *fakePatientRepo
		wantErr   error
		wantName  string
		wantToken string
	}{
		{
			name:      "patient with token resolves",
			patientID: "patient-1",
			repo: &fakePatientRepo{
				getByIDFn: func(_ context.Context, id string) (*domain.PatientProfile, error) {
					return profileWithToken(id, "أحمد", "token-1"), nil
				},
			},
			wantName:  "أحمد",
			wantToken: "token-1",
		},
		{
			name:      "empty patient id is a validation error",
			patientID: "  ",
			repo: &fakePatientRepo{
				getByIDFn: func(context.Context, string) (*domain.PatientProfile, error) {
					t.Error("repository should not be queried for empty id")
					return nil, nil
				},
			},
			wantErr: domain.ErrValidation,
		},
		{
			name:      "unknown patient",
			patientID: "patient-404",
			repo: &fakePatientRepo{
				getByIDFn: func(_ context.Context, id string) (*domain.PatientProfile, error) {
					return nil, fmt.Errorf("%w: patient %s", domain.ErrNotFound, id)
				},
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:      "patient without push token",
			patientID: "patient-2",
			repo: &fakePatientRepo{
				getByIDFn: func(_ context.Context, id string) (*domain.PatientProfile, error) {
					return profileWithToken(id, "سارة", ""), nil
				},
			},
			wantErr: domain.ErrNoDeliveryAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver, err := NewRecipientResolver(tt.repo)
			if err != nil {
				t.Fatalf("NewRecipientResolver() error = %v", err)
			}

			recipient, err := resolver.Resolve(context.Background(), tt.patientID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if recipient.DisplayName != tt.wantName {
				t.Errorf("DisplayName = %q, want %q", recipient.DisplayName, tt.wantName)
			}
			if recipient.PushToken != tt.wantToken {
				t.Errorf("PushToken = %q, want %q", recipient.PushToken, tt.wantToken)
			}
		})
	}
}

func TestResolverTrimsPatientID(t *testing.T) {
	t.Parallel()

	var queried string
	repo := &fakePatientRepo{
		getByIDFn: func(_ context.Context, id string) (*domain.PatientProfile, error) {
			queried = id
			return profileWithToken(id, "أحمد", "token-1"), nil
		},
	}

	resolver, err := NewRecipientResolver(repo)
	if err != nil {
		t.Fatalf("NewRecipientResolver() error = %v", err)
	}

	recipient, err := resolver.Resolve(context.Background(), "  patient-1  ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if queried != "patient-1" {
		t.Errorf("repository queried with %q, want trimmed id", queried)
	}
	if recipient.PatientID != "patient-1" {
		t.Errorf("PatientID = %q", recipient.PatientID)
	}
}
