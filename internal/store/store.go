// Package store keeps the ledger of offline update runs in a sqlite
// database beneath the bridge storage root.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/homebridge/uix/internal/constants"
)

// Options describes parameters for opening the history store.
type Options struct {
	StoragePath string // Bridge storage root; the database lives beneath it
	DBPath      string // Optional override for the database path (primarily for tests)
	ReadOnly    bool   // Open database in read-only mode
}

// Store provides access to the update history database.
type Store struct {
	db       *sql.DB
	dbPath   string
	readOnly bool
}

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// DefaultPath returns the history database location for a storage root.
func DefaultPath(storagePath string) string {
	return filepath.Join(storagePath, constants.UpdateHistoryFileName)
}

// Open initialises the history store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		if opts.StoragePath == "" {
			return nil, errors.New("history: storage path is required")
		}
		dbPath = DefaultPath(opts.StoragePath)
	}

	dsn := dbPath
	if opts.ReadOnly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("history: open %s: %w", dbPath, err)
		}
		dsn = fmt.Sprintf("file:%s?mode=ro", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite store: %w", err)
	}

	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, constants.HistoryOpenTimeout)
	defer cancel()

	if err := applyPragmas(ctx, db, opts.ReadOnly); err != nil {
		db.Close()
		return nil, err
	}

	if !opts.ReadOnly {
		if err := applySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db:       db,
		dbPath:   dbPath,
		readOnly: opts.ReadOnly,
	}, nil
}

// Close finalises the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem path of the backing database.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("history: rollback failed after %v: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
