package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smartdoc/queue-notifier/internal/observability"
	"github.com/smartdoc/queue-notifier/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval   = 24 * time.Hour
	defaultRetentionWindow = 30 * 24 * time.Hour
	defaultSweepBatchLimit = 500
)

// RetentionSweeper periodically deletes ledger records older than the
// retention window, in bounded batches. A run that hits the batch cap leaves
// the remainder for the next run; the cutoff recomputes each time, so no
// cursor is needed.
type RetentionSweeper struct {
	ledger     repository.LedgerRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	retention  time.Duration
	batchLimit int
	now        func() time.Time
}

func NewRetentionSweeper(
	ledger repository.LedgerRepository,
	interval time.Duration,
	retention time.Duration,
	batchLimit int,
	logger *zap.Logger,
) (*RetentionSweeper, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultRetentionWindow
	}
	if batchLimit <= 0 {
		batchLimit = defaultSweepBatchLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionSweeper{
		ledger:     ledger,
		logger:     logger,
		interval:   interval,
		retention:  retention,
		batchLimit: batchLimit,
		now:        time.Now,
	}, nil
}

func (s *RetentionSweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *RetentionSweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of deleted records.
func (s *RetentionSweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)

	ids, err := s.ledger.FindIDsOlderThan(ctx, cutoff, s.batchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired ledger records: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("no expired ledger records to clean up")
		return 0, nil
	}

	deleted, err := s.ledger.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired ledger records: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AddRetentionDeleted(deleted)
	}
	s.logger.Info("cleaned up expired ledger records",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)

	return deleted, nil
}
