// Package sqlstore keeps ledger snapshots in a SQLite database through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/brokerage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultName is the row a Store reads and writes unless told otherwise.
const DefaultName = "ledger"

// snapshot is one persisted ledger. The whole JSON document is replaced on
// every save.
type snapshot struct {
	Name      string `gorm:"primaryKey"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (snapshot) TableName() string { return "snapshots" }

// Store is a brokerage.Store backed by one row of the snapshots table.
type Store struct {
	db   *gorm.DB
	name string
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, name: DefaultName}, nil
}

// Named returns a store sharing the database but using another row.
func (s *Store) Named(name string) *Store {
	return &Store{db: s.db, name: name}
}

func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var row snapshot
	err := s.db.WithContext(ctx).Where("name = ?", s.name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, brokerage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", s.name, err)
	}
	return row.Data, nil
}

// Save upserts the row in a single statement.
func (s *Store) Save(ctx context.Context, data []byte) error {
	row := snapshot{Name: s.name, Data: data}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", s.name, err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
