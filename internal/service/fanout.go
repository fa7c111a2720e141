package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/gateway"
	"github.com/smartdoc/queue-notifier/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxBulkRecipients      = 100
	defaultBulkConcurrency = 8
)

// CustomRequest is one operator-initiated notification to a single patient.
type CustomRequest struct {
	PatientID string
	Title     string
	Body      string
	ExtraData map[string]string
	SentBy    string
}

// CustomResult reports the gateway delivery id of a custom send.
type CustomResult struct {
	MessageID string
}

// BulkRequest is one operator-initiated fan-out to up to 100 patients.
type BulkRequest struct {
	PatientIDs []string
	Title      string
	Body       string
	ExtraData  map[string]string
	SentBy     string
}

type BulkRecipientSuccess struct {
	PatientID string
	MessageID string
}

type BulkRecipientFailure struct {
	PatientID string
	Error     string
}

// BulkResult aggregates per-recipient outcomes of one fan-out. Totals always
// equal the request length; ordering follows completion, not input.
type BulkResult struct {
	TotalRequested int
	SuccessCount   int
	FailureCount   int
	Successes      []BulkRecipientSuccess
	Failures       []BulkRecipientFailure
}

// NotificationService hosts the operator entry points: single custom sends
// and bulk fan-out with per-recipient isolation.
type NotificationService struct {
	resolver    *RecipientResolver
	dispatcher  *Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewNotificationService(
	resolver *RecipientResolver,
	dispatcher *Dispatcher,
	concurrency int,
	logger *zap.Logger,
) (*NotificationService, error) {
	if resolver == nil {
		return nil, fmt.Errorf("recipient resolver is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if concurrency < 1 {
		concurrency = defaultBulkConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		resolver:    resolver,
		dispatcher:  dispatcher,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (s *NotificationService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SendCustom delivers one notification to one patient. There is no
// partial-success concept: any failure fails the whole call.
func (s *NotificationService) SendCustom(ctx context.Context, req CustomRequest) (*CustomResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(req.SentBy) == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrUnauthenticated)
	}
	if strings.TrimSpace(req.PatientID) == "" || req.Title == "" || req.Body == "" {
		return nil, fmt.Errorf("%w: patientId, title and body are required", domain.ErrValidation)
	}

	recipient, err := s.resolver.Resolve(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.dispatcher.Dispatch(ctx, DispatchRequest{
		Recipient: *recipient,
		Message:   domain.ComposedMessage{Title: req.Title, Body: req.Body},
		Data:      s.operatorPayload(payloadTypeCustom, req.SentBy, req.ExtraData),
		Android: gateway.AndroidHints{
			ChannelID:      androidChannelID,
			Priority:       androidPriority,
			DefaultSound:   true,
			DefaultVibrate: true,
		},
		SourceType:    domain.SourceCustom,
		StatusContext: "custom",
		SentBy:        req.SentBy,
		ExtraData:     req.ExtraData,
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Success {
		return nil, fmt.Errorf("failed to deliver custom notification: %s", derefString(outcome.ErrorDescription))
	}

	return &CustomResult{MessageID: derefString(outcome.MessageID)}, nil
}

// SendBulk fans one message out to every requested patient. Once validation
// passes the call never fails outright: each recipient is processed in
// isolation and the result summarizes both sides.
func (s *NotificationService) SendBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(req.SentBy) == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrUnauthenticated)
	}
	if len(req.PatientIDs) == 0 || req.Title == "" || req.Body == "" {
		return nil, fmt.Errorf("%w: patientIds, title and body are required", domain.ErrValidation)
	}
	if len(req.PatientIDs) > maxBulkRecipients {
		return nil, fmt.Errorf("%w: cannot send to more than %d patients at once", domain.ErrValidation, maxBulkRecipients)
	}

	result := &BulkResult{TotalRequested: len(req.PatientIDs)}
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, patientID := range req.PatientIDs {
		patientID := patientID
		g.Go(func() error {
			success, failure := s.sendBulkRecipient(groupCtx, patientID, req)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				result.Failures = append(result.Failures, *failure)
				result.FailureCount++
				return nil
			}
			result.Successes = append(result.Successes, *success)
			result.SuccessCount++
			return nil
		})
	}

	// Workers never return errors; per-recipient failures are contained in
	// the result.
	_ = g.Wait()

	s.logger.Info("bulk fan-out completed",
		zap.Int("total", result.TotalRequested),
		zap.Int("successful", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
		zap.String("sentBy", req.SentBy),
	)

	return result, nil
}

func (s *NotificationService) sendBulkRecipient(
	ctx context.Context,
	patientID string,
	req BulkRequest,
) (*BulkRecipientSuccess, *BulkRecipientFailure) {
	if err := ctx.Err(); err != nil {
		// Not-yet-started recipients are skipped on cancellation; the totals
		// invariant still holds because the skip is recorded as a failure.
		return nil, &BulkRecipientFailure{PatientID: patientID, Error: "operation cancelled before dispatch"}
	}

	if s.metrics != nil {
		s.metrics.IncBulkInFlight()
		defer s.metrics.DecBulkInFlight()
	}

	recipient, err := s.resolver.Resolve(ctx, patientID)
	if err != nil {
		return nil, &BulkRecipientFailure{PatientID: patientID, Error: resolutionFailureReason(err)}
	}

	outcome, err := s.dispatcher.Dispatch(ctx, DispatchRequest{
		Recipient: *recipient,
		Message:   domain.ComposedMessage{Title: req.Title, Body: req.Body},
		Data:      s.operatorPayload(payloadTypeBulk, req.SentBy, req.ExtraData),
		Android: gateway.AndroidHints{
			ChannelID:      androidChannelID,
			Priority:       androidPriority,
			DefaultSound:   true,
			DefaultVibrate: true,
		},
		SourceType:    domain.SourceBulk,
		StatusContext: "bulk",
		SentBy:        req.SentBy,
		ExtraData:     req.ExtraData,
	})
	if err != nil && outcome == nil {
		// The attempt never reached the gateway.
		return nil, &BulkRecipientFailure{PatientID: patientID, Error: err.Error()}
	}
	if !outcome.Success {
		return nil, &BulkRecipientFailure{PatientID: patientID, Error: derefString(outcome.ErrorDescription)}
	}

	// A ledger-write failure after a delivered push still counts as a
	// success for the recipient; the dispatcher has already logged it.
	return &BulkRecipientSuccess{PatientID: patientID, MessageID: derefString(outcome.MessageID)}, nil
}

func (s *NotificationService) operatorPayload(
	payloadType string,
	sentBy string,
	extraData map[string]string,
) map[string]string {
	data := make(map[string]string, len(extraData)+3)
	for k, v := range extraData {
		data[k] = v
	}
	// Reserved keys win over operator extras.
	data["type"] = payloadType
	data["timestamp"] = s.now().UTC().Format(time.RFC3339)
	data["sentBy"] = sentBy
	return data
}

func resolutionFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Patient not found"
	case errors.Is(err, domain.ErrNoDeliveryAddress):
		return "No push token found"
	default:
		return err.Error()
	}
}
