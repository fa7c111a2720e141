package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"gorm.io/gorm"
)

// LedgerRepository is the durable log of delivery outcomes. Records are
// append-only; the only delete path is the retention sweep.
type LedgerRepository interface {
	Create(ctx context.Context, outcome *domain.DeliveryOutcome) error
	GetByID(ctx context.Context, id string) (*domain.DeliveryOutcome, error)
	FindIDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type GormLedgerRepo struct {
	db *gorm.DB
}

func NewGormLedgerRepo(db *gorm.DB) *GormLedgerRepo {
	return &GormLedgerRepo{db: db}
}

func (r *GormLedgerRepo) Create(ctx context.Context, outcome *domain.DeliveryOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}

	model := deliveryRecordFromDomain(outcome)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*outcome = *deliveryRecordToDomain(model)
	return nil
}

func (r *GormLedgerRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryOutcome, error) {
	var model DeliveryRecordModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryRecordToDomain(&model), nil
}

func (r *GormLedgerRepo) FindIDsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&DeliveryRecordModel{}).
		Where("sent_at < ?", cutoff).
		Order("sent_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByIDs removes the given records in a single transaction so a sweep
// batch lands atomically.
func (r *GormLedgerRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id IN ?", ids).Delete(&DeliveryRecordModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
