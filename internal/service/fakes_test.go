package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/gateway"
)

type fakePatientRepo struct {
	getByIDFn func(ctx context.Context, patientID string) (*domain.PatientProfile, error)
}

func (f *fakePatientRepo) GetByID(ctx context.Context, patientID string) (*domain.PatientProfile, error) {
	return f.getByIDFn(ctx, patientID)
}

type fakeLedgerRepo struct {
	mu       sync.Mutex
	created  []domain.DeliveryOutcome
	createFn func(ctx context.Context, outcome *domain.DeliveryOutcome) error

	findIDsOlderThanFn func(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	deleteByIDsFn      func(ctx context.Context, ids []string) (int64, error)
}

func (f *fakeLedgerRepo) Create(ctx context.Context, outcome *domain.DeliveryOutcome) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, outcome); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *outcome)
	return nil
}

func (f *fakeLedgerRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.created {
		if f.created[i].ID == id {
			outcome := f.created[i]
			return &outcome, nil
		}
	}
	return nil, fmt.Errorf("%w: delivery outcome %s", domain.ErrNotFound, id)
}

func (f *fakeLedgerRepo) FindIDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if f.findIDsOlderThanFn != nil {
		return f.findIDsOlderThanFn(ctx, cutoff, limit)
	}
	return nil, nil
}

func (f *fakeLedgerRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if f.deleteByIDsFn != nil {
		return f.deleteByIDsFn(ctx, ids)
	}
	return int64(len(ids)), nil
}

func (f *fakeLedgerRepo) createdOutcomes() []domain.DeliveryOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DeliveryOutcome, len(f.created))
	copy(out, f.created)
	return out
}

type fakeGateway struct {
	mu     sync.Mutex
	sent   []gateway.Message
	sendFn func(ctx context.Context, msg gateway.Message) (*gateway.SendResponse, error)
}

func (f *fakeGateway) Send(ctx context.Context, msg gateway.Message) (*gateway.SendResponse, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return &gateway.SendResponse{StatusCode: 200, MessageID: "projects/test/messages/1"}, nil
}

func (f *fakeGateway) sentMessages() []gateway.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, channel string) (bool, error)
	waitFn  func(ctx context.Context, channel string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, channel)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, channel)
	}
	return nil
}

func profileWithToken(patientID, name, token string) *domain.PatientProfile {
	return &domain.PatientProfile{
		PatientID:   patientID,
		DisplayName: name,
		PushToken:   token,
	}
}
