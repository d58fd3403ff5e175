// Package localdata is the client-local persistence layer: a small
// key-value store over sqlite holding the theme choice, the device
// identifier and per-episode watch-progress records.
package localdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by Get when the key has no record.
var ErrNotFound = errors.New("key not found")

// Options tune the underlying sqlite connection.
type Options struct {
	WALMode        bool
	MaxConnections int
}

// Store is a sqlite-backed key-value store. Safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if opts.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConnections)
		sqlDB.SetMaxIdleConns(opts.MaxConnections / 2)
	}

	if opts.WALMode {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the raw value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var entry Entry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return entry.Value, nil
}

// Set writes the value for key, overwriting any previous record.
func (s *Store) Set(key, value string) error {
	entry := Entry{Key: key, Value: value}
	return s.db.Save(&entry).Error
}

// Delete removes the record for key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	return s.db.Delete(&Entry{}, "key = ?", key).Error
}

// GetJSON decodes the value for key into out. A missing key returns
// ErrNotFound; a malformed value returns the decode error so callers can
// treat both as "absent".
func (s *Store) GetJSON(key string, out any) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, string(raw))
}
