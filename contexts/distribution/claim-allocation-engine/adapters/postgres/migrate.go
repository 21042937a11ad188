package postgresadapter

import "gorm.io/gorm"

// AutoMigrate creates or updates the engine tables and their unique indexes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&poolModel{},
		&codeModel{},
		&sharedCodeModel{},
		&reservationModel{},
		&applicationModel{},
		&claimModel{},
		&claimantModel{},
		&outboxModel{},
		&eventDedupModel{},
	)
}
