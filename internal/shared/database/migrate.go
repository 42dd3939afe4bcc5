package database

import (
	"gorm.io/gorm"
)

// Migrate creates or updates the tables for the given models and then
// applies the raw SQL constraints gorm tags cannot express.
func Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
