// Package storage persists the local activity journal: one row per completed
// custody transfer or order action. The journal is history only; remote
// ledgers remain authoritative for all balances and orders.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

// Storage is the SQLite-backed activity journal.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the journal database under the user's
// config directory.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return Open(dbPath)
}

// Open opens the journal at an explicit path.
func Open(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.ActivityRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS.
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "icp-basic-dex", "data", "dexclient.db"), nil
}

// Append writes one completed activity to the journal.
func (s *Storage) Append(rec *domain.ActivityRecord) error {
	return s.db.Create(rec).Error
}

// Recent returns the principal's most recent activities, newest first.
func (s *Storage) Recent(principal string, limit int) ([]domain.ActivityRecord, error) {
	var recs []domain.ActivityRecord
	err := s.db.
		Where("principal = ?", principal).
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CountByKind returns how many activities of one kind the principal has.
func (s *Storage) CountByKind(principal, kind string) (int64, error) {
	var n int64
	err := s.db.
		Model(&domain.ActivityRecord{}).
		Where("principal = ? AND kind = ?", principal, kind).
		Count(&n).Error
	return n, err
}
