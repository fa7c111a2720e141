package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/gateway"
	"github.com/smartdoc/queue-notifier/internal/observability"
	"github.com/smartdoc/queue-notifier/internal/ratelimit"
	"github.com/smartdoc/queue-notifier/internal/repository"
	"go.uber.org/zap"
)

// gatewayChannel is the rate-limiter key for the single push gateway.
const gatewayChannel = "push"

// DispatchRequest is one fully-resolved dispatch attempt: recipient, content,
// structured payload, and the ledger fields describing why it is being sent.
type DispatchRequest struct {
	Recipient ResolvedRecipient
	Message   domain.ComposedMessage
	Data      map[string]string
	Android   gateway.AndroidHints
	APNS      *gateway.APNSHints

	SourceType     domain.SourceType
	StatusContext  string
	DoctorID       string
	PreviousStatus *domain.QueueStatus
	NewStatus      *domain.QueueStatus
	SentBy         string
	ExtraData      map[string]string
}

// Dispatcher sends one composed message to one resolved recipient and records
// the outcome in the ledger. Gateway failures become failed outcomes, never
// panics or untyped escapes.
type Dispatcher struct {
	gateway gateway.PushGateway
	ledger  repository.LedgerRepository
	limiter ratelimit.RateLimiter
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

func NewDispatcher(
	pushGateway gateway.PushGateway,
	ledger repository.LedgerRepository,
	limiter ratelimit.RateLimiter,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if pushGateway == nil {
		return nil, fmt.Errorf("push gateway is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		gateway: pushGateway,
		ledger:  ledger,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch performs the gateway call and always writes a ledger entry for it.
// The returned outcome reflects the delivery result; a non-nil error means
// either the attempt never reached the gateway (context/rate-limiter failure,
// outcome nil) or the ledger write failed (outcome non-nil).
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*domain.DeliveryOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, gatewayChannel); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	msg := gateway.Message{
		Token:   req.Recipient.PushToken,
		Title:   req.Message.Title,
		Body:    req.Message.Body,
		Data:    req.Data,
		Android: req.Android,
		APNS:    req.APNS,
	}

	sendStart := d.now()
	resp, sendErr := d.gateway.Send(ctx, msg)
	if d.metrics != nil {
		d.metrics.ObserveGatewaySendDuration(d.now().Sub(sendStart))
	}

	outcome := d.buildOutcome(req, resp, sendErr)
	source := strings.ToLower(req.SourceType.String())

	if sendErr != nil {
		d.logger.Warn("push dispatch failed",
			zap.String("patientId", req.Recipient.PatientID),
			zap.String("source", source),
			zap.Error(sendErr),
		)
		if d.metrics != nil {
			d.metrics.IncDispatchFailed(source)
		}
	} else if d.metrics != nil {
		d.metrics.IncDispatchSucceeded(source)
	}

	if err := d.ledger.Create(ctx, outcome); err != nil {
		d.logger.Error("failed to write delivery outcome to ledger",
			zap.String("patientId", req.Recipient.PatientID),
			zap.String("source", source),
			zap.Bool("dispatchSuccess", outcome.Success),
			zap.Error(err),
		)
		if d.metrics != nil {
			d.metrics.IncLedgerWriteFailed()
		}
		return outcome, fmt.Errorf("failed to record delivery outcome: %w", err)
	}

	return outcome, nil
}

func (d *Dispatcher) buildOutcome(
	req DispatchRequest,
	resp *gateway.SendResponse,
	sendErr error,
) *domain.DeliveryOutcome {
	outcome := &domain.DeliveryOutcome{
		ID:             d.newID(),
		PatientID:      req.Recipient.PatientID,
		DoctorID:       req.DoctorID,
		SourceType:     req.SourceType,
		StatusContext:  req.StatusContext,
		PreviousStatus: req.PreviousStatus,
		NewStatus:      req.NewStatus,
		Title:          req.Message.Title,
		Body:           req.Message.Body,
		PushToken:      req.Recipient.PushToken,
		SentBy:         req.SentBy,
		ExtraData:      req.ExtraData,
		SentAt:         d.now().UTC(),
	}

	if sendErr == nil {
		messageID := ""
		if resp != nil {
			messageID = strings.TrimSpace(resp.MessageID)
		}
		if messageID == "" {
			// Gateways that omit a delivery id still delivered; keep the
			// invariant that success carries a message id.
			messageID = outcome.ID
		}
		outcome.Success = true
		outcome.MessageID = &messageID
		return outcome
	}

	description := sendErr.Error()
	outcome.Success = false
	outcome.ErrorDescription = &description
	return outcome
}
