// Package store persists per-track acquisition state in SQLite.
//
// All playlists share one tracks table keyed (playlist_id, id); a side table
// records candidate basenames already tried and rejected for a track. Every
// write is a single-row update so a crash mid-cycle never leaves partial
// multi-row state behind.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "spotify-slsk"
	dbFileName = "spotify-slsk.db"
)

// Store wraps the SQLite database holding track state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. An empty path places the
// database in the XDG data directory.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = xdg.DataFile(filepath.Join(appName, dbFileName))
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory database. Used by tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables and indexes. Safe to run on every startup.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT NOT NULL,
			playlist_id TEXT NOT NULL,
			name TEXT NOT NULL,
			artists TEXT NOT NULL,
			album TEXT NOT NULL,
			downloaded INTEGER NOT NULL DEFAULT 0,
			path TEXT,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_attempt INTEGER,
			suspended_until INTEGER,
			added_at INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, id)
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_pending
			ON tracks(playlist_id, downloaded, suspended_until);

		CREATE TABLE IF NOT EXISTS tried_files (
			track_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			PRIMARY KEY (track_id, file_path)
		);
	`)
	return err
}
