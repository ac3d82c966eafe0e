package database

import (
	"fmt"
	"log"

	"invoicedesk/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection opens a pgx-backed connection pool, hands it to GORM and
// migrates the schema.
func NewConnection(dsn string) (*gorm.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connConfig)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.UserCompany{},
		&model.Invoice{},
		&model.AuditLog{},
	)
}
