package store

import (
	"database/sql"
	"strings"
	"time"

	dbutil "github.com/guilhermewolf/spotify-slsk/internal/db"
)

// Track is the persisted acquisition state for one catalog track.
type Track struct {
	ID             string
	PlaylistID     string
	Name           string
	Artists        string // display string, names joined by ", "
	Album          string
	Downloaded     bool
	Path           string // empty unless downloaded or adopted by the sweep
	Attempts       int
	LastAttempt    *time.Time
	SuspendedUntil *time.Time
}

// ArtistNames splits the stored artist display string back into names.
func (t *Track) ArtistNames() []string {
	parts := strings.Split(t.Artists, ", ")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// JoinArtists builds the stored display string from ordered artist names.
func JoinArtists(names []string) string {
	return strings.Join(names, ", ")
}

const trackColumns = `id, playlist_id, name, artists, album, downloaded, path, attempts, last_attempt, suspended_until`

// InsertNew records a newly seen catalog track. Existing rows are left
// untouched (the playlist diff is additive only). Returns true when a row
// was actually inserted.
func (s *Store) InsertNew(t Track) (bool, error) {
	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO tracks (id, playlist_id, name, artists, album, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.PlaylistID, t.Name, t.Artists, t.Album, time.Now().Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TracksForPlaylist returns all tracks of a playlist in insertion order.
func (s *Store) TracksForPlaylist(playlistID string) ([]Track, error) {
	rows, err := s.db.Query(`
		SELECT `+trackColumns+`
		FROM tracks
		WHERE playlist_id = ?
		ORDER BY added_at, id
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// AllTracks returns every track across all playlists. The orphan cleanup
// needs the whole catalog: a file in the shared library dir may belong to
// any playlist.
func (s *Store) AllTracks() ([]Track, error) {
	rows, err := s.db.Query(`
		SELECT ` + trackColumns + `
		FROM tracks
		ORDER BY playlist_id, added_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// GetTrack returns a single track row.
func (s *Store) GetTrack(playlistID, id string) (*Track, error) {
	row := s.db.QueryRow(`
		SELECT `+trackColumns+`
		FROM tracks
		WHERE playlist_id = ? AND id = ?
	`, playlistID, id)
	t, err := scanTrack(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RemainingCount returns how many tracks of a playlist are not downloaded.
func (s *Store) RemainingCount(playlistID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tracks WHERE playlist_id = ? AND downloaded = 0
	`, playlistID).Scan(&n)
	return n, err
}

// MarkSuccess records a verified acquisition: downloaded flag and path set,
// attempt counters and suspension cleared, tried files wiped. One
// transaction so a crash cannot leave tried rows behind a downloaded track.
func (s *Store) MarkSuccess(playlistID, id, path string, now time.Time) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE tracks
			SET downloaded = 1, path = ?, attempts = 0, suspended_until = NULL, last_attempt = ?
			WHERE playlist_id = ? AND id = ?
		`, path, now.Unix(), playlistID, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM tried_files WHERE track_id = ?`, id)
		return err
	})
}

// MarkFailure records one failed acquisition attempt. suspendedUntil is set
// only when the governor decided the track reached its attempt ceiling.
func (s *Store) MarkFailure(playlistID, id string, now time.Time, suspendedUntil *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE tracks
		SET attempts = attempts + 1, last_attempt = ?, suspended_until = COALESCE(?, suspended_until)
		WHERE playlist_id = ? AND id = ?
	`, now.Unix(), dbutil.TimeToNullUnix(suspendedUntil), playlistID, id)
	return err
}

// ClearPath demotes a track whose file vanished back to pending. The
// attempt counters are left alone; the governor still owns those.
func (s *Store) ClearPath(playlistID, id string) error {
	_, err := s.db.Exec(`
		UPDATE tracks
		SET downloaded = 0, path = NULL
		WHERE playlist_id = ? AND id = ?
	`, playlistID, id)
	return err
}

// TriedFiles returns the candidate basenames already rejected for a track.
func (s *Store) TriedFiles(trackID string) (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT file_path FROM tried_files WHERE track_id = ?`, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tried := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tried[name] = struct{}{}
	}
	return tried, rows.Err()
}

// AddTriedFile records a rejected candidate basename for a track.
func (s *Store) AddTriedFile(trackID, filename string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO tried_files (track_id, file_path) VALUES (?, ?)
	`, trackID, filename)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (Track, error) {
	var t Track
	var downloaded int
	var path sql.NullString
	var lastAttempt, suspendedUntil sql.NullInt64

	err := row.Scan(&t.ID, &t.PlaylistID, &t.Name, &t.Artists, &t.Album,
		&downloaded, &path, &t.Attempts, &lastAttempt, &suspendedUntil)
	if err != nil {
		return Track{}, err
	}

	t.Downloaded = downloaded != 0
	t.Path = dbutil.NullStringValue(path)
	t.LastAttempt = dbutil.NullUnixToTime(lastAttempt)
	t.SuspendedUntil = dbutil.NullUnixToTime(suspendedUntil)
	return t, nil
}
