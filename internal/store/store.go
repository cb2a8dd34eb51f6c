package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// LogVersion is the resolution log layout this build reads and writes. It is
// kept in PRAGMA user_version; 0 marks a file no tess process has set up yet.
const LogVersion = 1

// ErrUnsupportedVersion is returned by Open for a log written with a newer
// layout.
var ErrUnsupportedVersion = errors.New("unsupported resolution log version")

// pragmas configure every connection: WAL so listings can run while a
// batch appends, and a busy timeout for writers from other processes.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the append-only resolution log, kept in one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the log at path, creating the file and its tables when needed.
// Opening the same path again is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open resolution log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open resolution log %s: %w", path, err)
	}

	// One connection: SQLite has a single writer and the pragmas are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure resolution log: %q: %w", p, err)
		}
	}
	if err := ensureLayout(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Version returns the layout version recorded in the file.
func (s *Store) Version() (int, error) {
	return userVersion(s.db)
}

// ensureLayout creates the tables of a fresh log and refuses a log written
// with a newer layout.
func ensureLayout(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version > LogVersion {
		return fmt.Errorf("%w: file has version %d, this build supports %d", ErrUnsupportedVersion, version, LogVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create resolution log tables: %w", err)
	}
	if version < LogVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", LogVersion)); err != nil {
			return fmt.Errorf("set log version: %w", err)
		}
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read log version: %w", err)
	}
	return v, nil
}
