package repository

import (
	"context"
	"errors"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"gorm.io/gorm"
)

// PatientRepository reads patient profiles. The engine never writes them.
type PatientRepository interface {
	GetByID(ctx context.Context, patientID string) (*domain.PatientProfile, error)
}

type GormPatientRepo struct {
	db *gorm.DB
}

func NewGormPatientRepo(db *gorm.DB) *GormPatientRepo {
	return &GormPatientRepo{db: db}
}

func (r *GormPatientRepo) GetByID(ctx context.Context, patientID string) (*domain.PatientProfile, error) {
	var model PatientModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return patientToDomain(&model), nil
}
