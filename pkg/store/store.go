package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/shopbot/pkg/models"
)

// Store owns the durable tables for items, orders and banned users.
// It is the only component that touches the database; callers hold no
// copies of rows across operations.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(dialector gorm.Dialector, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Init creates the three tables if they are absent and heals columns
// added after the first deployment. Safe to run on every start; it
// never drops or rewrites existing rows. Any error here is fatal to
// startup — the service cannot run without its schema.
func (s *Store) Init() error {
	migrator := s.db.Migrator()

	for _, model := range []interface{}{
		&models.Item{},
		&models.Order{},
		&models.BannedUser{},
	} {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return &Error{Op: "create table", Err: err}
		}
	}

	// Columns introduced after the original schema shipped. Each call
	// is a no-op when the column already exists.
	heals := []struct {
		model  interface{}
		column string
	}{
		{&models.Order{}, "payment_confirmed"},
		{&models.Order{}, "confirmation_key"},
		{&models.Order{}, "key_submitted_at"},
		{&models.Item{}, "drive_link"},
	}
	for _, h := range heals {
		if err := s.EnsureColumn(h.model, h.column); err != nil {
			return err
		}
	}

	s.logger.Info("Database initialization complete")
	return nil
}

// EnsureColumn probes for a column and performs an additive ALTER
// TABLE when it is missing. Repeated calls are no-ops; existing row
// data is never touched.
func (s *Store) EnsureColumn(model interface{}, column string) error {
	migrator := s.db.Migrator()
	if migrator.HasColumn(model, column) {
		return nil
	}

	s.logger.Info("Adding missing column", zap.String("column", column))
	if err := migrator.AddColumn(model, column); err != nil {
		return &Error{Op: "add column", Err: err}
	}
	return nil
}

// Transaction runs fn against a Store bound to a single database
// transaction, so a precondition check and the write that depends on
// it commit or roll back together.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
