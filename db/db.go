package db

import (
	"fmt"

	log15 "github.com/inconshreveable/log15/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var logger = log15.New("module", "db")

// Store wraps the Postgres tables backing channel configurations and the
// claim ledger.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	if err := gdb.AutoMigrate(&ChannelConfig{}, &ClaimRecord{}); err != nil {
		return nil, fmt.Errorf("db: migrate: %w", err)
	}

	logger.Info("connected to database")
	return &Store{db: gdb}, nil
}
