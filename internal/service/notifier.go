package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/gateway"
	"go.uber.org/zap"
)

// Payload keys and values the mobile client keys off.
const (
	payloadTypeQueueUpdate = "queue_update"
	payloadTypeCustom      = "custom_notification"
	payloadTypeBulk        = "bulk_notification"
	payloadClickAction     = "FLUTTER_NOTIFICATION_CLICK"

	androidChannelID = "clinic_queue"
	androidPriority  = "high"
	androidIcon      = "ic_notification"
	androidColor     = "#4CAF50"

	apnsCategoryQueueUpdate = "QUEUE_UPDATE"
)

// QueueUpdate is the before/after snapshot pair delivered by the external
// event source whenever a queue entry document is written.
type QueueUpdate struct {
	DoctorID  string
	PatientID string
	Before    domain.QueueEntry
	After     domain.QueueEntry
}

// ChangeNotifier decides, per queue-entry update, whether a notification is
// warranted and runs the resolve-compose-dispatch-ledger pipeline.
type ChangeNotifier struct {
	resolver   *RecipientResolver
	dispatcher *Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewChangeNotifier(
	resolver *RecipientResolver,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) (*ChangeNotifier, error) {
	if resolver == nil {
		return nil, fmt.Errorf("recipient resolver is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChangeNotifier{
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// HandleQueueUpdate processes one update event. A nil return means the event
// is fully handled, including the deliberate no-op cases; a non-nil return
// signals the event source that its redelivery policy may act.
func (n *ChangeNotifier) HandleQueueUpdate(ctx context.Context, update QueueUpdate) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Idempotency guard: a document write that does not change status must
	// never re-notify.
	if update.Before.Status == update.After.Status {
		n.logger.Debug("status unchanged, skipping notification",
			zap.String("patientId", update.PatientID),
			zap.String("status", update.After.Status.String()),
		)
		return nil
	}

	if update.After.Status.IsEmpty() || update.PatientID == "" || update.DoctorID == "" {
		n.logger.Warn("queue update missing required data, skipping notification",
			zap.String("doctorId", update.DoctorID),
			zap.String("patientId", update.PatientID),
		)
		return nil
	}

	recipient, err := n.resolver.Resolve(ctx, update.PatientID)
	if err != nil {
		// Resolution failures precede any dispatch attempt: no ledger entry.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoDeliveryAddress) {
			n.logger.Info("recipient not reachable, skipping notification",
				zap.String("patientId", update.PatientID),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	previousStatus := update.Before.Status
	newStatus := update.After.Status
	message := domain.ComposeStatusMessage(newStatus, recipient.DisplayName)

	n.logger.Info("dispatching queue status notification",
		zap.String("patientId", update.PatientID),
		zap.String("previousStatus", previousStatus.String()),
		zap.String("newStatus", newStatus.String()),
	)

	outcome, err := n.dispatcher.Dispatch(ctx, DispatchRequest{
		Recipient: *recipient,
		Message:   message,
		Data:      n.queueUpdatePayload(update),
		Android: gateway.AndroidHints{
			ChannelID:      androidChannelID,
			Priority:       androidPriority,
			DefaultSound:   true,
			DefaultVibrate: true,
			Icon:           androidIcon,
			Color:          androidColor,
		},
		APNS: &gateway.APNSHints{
			Sound:    "default",
			Badge:    1,
			Category: apnsCategoryQueueUpdate,
		},
		SourceType:     domain.SourceStateChange,
		StatusContext:  newStatus.String(),
		DoctorID:       update.DoctorID,
		PreviousStatus: &previousStatus,
		NewStatus:      &newStatus,
	})
	if err != nil {
		return err
	}
	if !outcome.Success {
		// The failure is already on the ledger; escalate so the event source
		// can apply its retry policy.
		return fmt.Errorf("push dispatch failed for patient %s: %s",
			update.PatientID, derefString(outcome.ErrorDescription))
	}

	return nil
}

func (n *ChangeNotifier) queueUpdatePayload(update QueueUpdate) map[string]string {
	queueNumber := ""
	if update.After.QueueNumber != nil {
		queueNumber = strconv.Itoa(*update.After.QueueNumber)
	}

	return map[string]string{
		"type":        payloadTypeQueueUpdate,
		"doctorId":    update.DoctorID,
		"patientId":   update.PatientID,
		"status":      update.After.Status.String(),
		"queueNumber": queueNumber,
		"clickAction": payloadClickAction,
		"timestamp":   n.now().UTC().Format(time.RFC3339),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
