package db

import (
	"launchpad/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Sale{},
		&models.Participation{},
		&models.WhitelistEntry{},
		&models.Account{},
		&models.Deployment{},
	)
}
