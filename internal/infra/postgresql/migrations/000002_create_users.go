package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/smartdoc/queue-notifier/internal/repository"
	"gorm.io/gorm"
)

// The users table is owned by the patient-registration system. The migration
// exists so local and test environments have the shared schema; production
// runs against the already-provisioned table.
func createUsersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_users",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.PatientModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PatientModel{})
		},
	}
}
