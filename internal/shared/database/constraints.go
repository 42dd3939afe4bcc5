package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the database constraints that back the seat state machine
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// A seat's references must agree with its status
		`ALTER TABLE seats DROP CONSTRAINT IF EXISTS chk_seat_state_refs`,
		`ALTER TABLE seats ADD CONSTRAINT chk_seat_state_refs CHECK (
			(status IN ('AVAILABLE', 'BLOCKED') AND hold_id IS NULL AND booking_id IS NULL) OR
			(status = 'HELD' AND hold_id IS NOT NULL AND booking_id IS NULL) OR
			(status = 'BOOKED' AND booking_id IS NOT NULL AND hold_id IS NULL)
		)`,

		// Promo usage can never pass its cap
		`ALTER TABLE promo_codes DROP CONSTRAINT IF EXISTS chk_promo_usage_cap`,
		`ALTER TABLE promo_codes ADD CONSTRAINT chk_promo_usage_cap CHECK (
			usage_cap IS NULL OR usage_count <= usage_cap
		)`,

		// Sweeper scans active holds by expiry
		`CREATE INDEX IF NOT EXISTS idx_holds_active_expiry ON holds (expires_at) WHERE status = 'ACTIVE'`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
