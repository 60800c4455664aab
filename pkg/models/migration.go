package models

import (
	"gorm.io/gorm"
)

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Bot{},
		&BotRun{},
		&Service{},
	)
}

func CreateIndexes(db *gorm.DB) error {
	// Composite indexes for common queries
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_bots_created_at_desc ON bots(created_at DESC)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_bot_runs_bot_run_time ON bot_runs(bot_id, run_time DESC)").Error; err != nil {
		return err
	}

	return nil
}
