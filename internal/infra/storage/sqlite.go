package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"triarb/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AlertRow is the persisted form of an AlertRecord. The table is insert-only:
// rows are never updated or deleted, matching the append-only contract of the
// durable sink.
type AlertRow struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	Cycle     string    `gorm:"index"`
	Edge      float64
	EdgePct   float64
	SimPnL    float64
	Quotes    string // JSON snapshot of all tracked instruments
}

// SQLiteSink stores alert records in a SQLite database (pure Go driver).
type SQLiteSink struct {
	db *gorm.DB
}

// NewSQLiteSink opens (or creates) the database at path and migrates the
// alert_rows table.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&AlertRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Append inserts one record.
func (s *SQLiteSink) Append(rec domain.AlertRecord) error {
	quotes, err := json.Marshal(rec.Quotes)
	if err != nil {
		return fmt.Errorf("marshal quote snapshot: %w", err)
	}

	row := AlertRow{
		Timestamp: rec.Timestamp,
		Cycle:     rec.CycleID,
		Edge:      rec.Edge,
		EdgePct:   rec.EdgePct,
		SimPnL:    rec.SimPnL,
		Quotes:    string(quotes),
	}
	return s.db.Create(&row).Error
}

// Recent returns the latest n records, newest first. Intended for ad-hoc
// inspection; the monitor itself never reads back.
func (s *SQLiteSink) Recent(n int) ([]AlertRow, error) {
	var rows []AlertRow
	err := s.db.Order("id desc").Limit(n).Find(&rows).Error
	return rows, err
}

// Close closes the underlying database handle.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
