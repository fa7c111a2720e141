package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/smartdoc/queue-notifier/internal/repository"
	"gorm.io/gorm"
)

func createNotificationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_notifications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryRecordModel{}); err != nil {
				return err
			}
			indexes := []string{
				// The retention sweep scans by age.
				`CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications (sent_at)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_patient_id ON notifications (patient_id)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_source_type ON notifications (source_type)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryRecordModel{})
		},
	}
}
