package infra

import (
	"quotepilot/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations creates or updates the schema. The unique index on
// offers.message_id is what makes offer creation idempotent under concurrent
// watcher loops. Also used by integration tests against a throwaway container
// database.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Supplier{},
		&model.QuoteRequest{},
		&model.Offer{},
		&model.OutboxMessage{},
		&model.PurchaseOrder{},
	)
}
