// Package postgres implements the repository contracts on PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

// Open connects to dsn, migrates the schema and returns a Store whose Close
// releases the connection pool.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := Migrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("postgres connected")

	return NewStore(db).WithCloser(func(context.Context) error { return sqlDB.Close() }), nil
}

// Migrate creates or updates every table used by the store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Unit{},
		&models.RentRecord{},
		&models.MaintenanceTicket{},
		&models.Agreement{},
		&models.Payment{},
		&models.Expense{},
		&models.Handover{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// NewStore wires the repositories over db.
func NewStore(db *gorm.DB) *repository.Store {
	return &repository.Store{
		Users:      &Users{db: db},
		Properties: &Properties{db: db},
		Units:      &Units{db: db},
		Rent:       &Rent{db: db},
		Tickets:    &Tickets{db: db},
		Agreements: &Agreements{db: db},
		Payments:   &Payments{db: db},
		Expenses:   &Expenses{db: db},
		Handovers:  &Handovers{db: db},
	}
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s %s not found", what, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

func first[T any](ctx context.Context, db *gorm.DB, what, id string) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, what, id)
	}
	return &out, nil
}
