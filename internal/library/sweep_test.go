package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilhermewolf/spotify-slsk/internal/store"
)

func defaultSweepOptions() SweepOptions {
	return SweepOptions{
		AdoptThreshold:  0.80,
		VerifyThreshold: 0.60,
	}
}

// writeAudioFile creates a file whose identity is only derivable from its
// "Artist - Title" name, which is how most acquired files look.
func writeAudioFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
	return path
}

func TestSweepKeepsVerifiedPath(t *testing.T) {
	dir := t.TempDir()
	path := writeAudioFile(t, dir, "deadmau5 - Strobe.mp3")

	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Strobe", Artists: "deadmau5",
		Downloaded: true, Path: path,
	}}

	changes := Sweep(tracks, nil, defaultSweepOptions())
	assert.Empty(t, changes, "a valid path must not be rewritten")
}

func TestSweepAdoptsForVanishedPath(t *testing.T) {
	dir := t.TempDir()
	replacement := writeAudioFile(t, dir, "deadmau5 - Strobe.flac")

	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Strobe", Artists: "deadmau5",
		Downloaded: true, Path: filepath.Join(dir, "gone.mp3"),
	}}
	index := []IndexedFile{{Path: replacement, Title: "Strobe", Artist: "deadmau5"}}

	changes := Sweep(tracks, index, defaultSweepOptions())
	require.Len(t, changes, 1)
	assert.Equal(t, AdoptPath, changes[0].Kind)
	assert.Equal(t, replacement, changes[0].Path)
	assert.GreaterOrEqual(t, changes[0].Score, 0.90)
}

func TestSweepDemotesWhenNothingMatches(t *testing.T) {
	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Strobe", Artists: "deadmau5",
		Downloaded: true, Path: "/nonexistent/strobe.mp3",
	}}

	changes := Sweep(tracks, nil, defaultSweepOptions())
	require.Len(t, changes, 1)
	assert.Equal(t, DemotePath, changes[0].Kind)
}

func TestSweepAdoptsForPendingTrack(t *testing.T) {
	// A file acquired out of band satisfies a track that was never
	// downloaded through us.
	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Strobe (Original Mix)", Artists: "deadmau5",
	}}
	index := []IndexedFile{{Path: "/music/deadmau5 - Strobe.flac", Title: "Strobe", Artist: "deadmau5"}}

	changes := Sweep(tracks, index, defaultSweepOptions())
	require.Len(t, changes, 1)
	assert.Equal(t, AdoptPath, changes[0].Kind)
}

func TestSweepLeavesPendingTrackWithoutMatch(t *testing.T) {
	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Strobe", Artists: "deadmau5",
	}}
	index := []IndexedFile{{Path: "/music/other.flac", Title: "One More Time", Artist: "Daft Punk"}}

	changes := Sweep(tracks, index, defaultSweepOptions())
	assert.Empty(t, changes, "pending tracks without a match stay pending")
}

func TestSweepSingleTokenGuard(t *testing.T) {
	tracks := []store.Track{{
		ID: "t1", PlaylistID: "p1",
		Name: "Home", Artists: "RÜFÜS DU SOL",
	}}
	index := []IndexedFile{{Path: "/music/Home.mp3", Title: "Home"}}

	opts := defaultSweepOptions()
	changes := Sweep(tracks, index, opts)
	assert.Empty(t, changes, "one-word title with no artist corroboration must not be adopted")

	opts.PermissiveSingleToken = true
	changes = Sweep(tracks, index, opts)
	require.Len(t, changes, 1)
	assert.Equal(t, AdoptPath, changes[0].Kind)

	// With the artist tag corroborating, the guard does not apply.
	opts.PermissiveSingleToken = false
	index[0].Artist = "RÜFÜS DU SOL"
	changes = Sweep(tracks, index, opts)
	require.Len(t, changes, 1)
	assert.Equal(t, AdoptPath, changes[0].Kind)
}

func TestBuildIndexUsesFilenameFallback(t *testing.T) {
	dir := t.TempDir()
	writeAudioFile(t, dir, "deadmau5 - Strobe.mp3")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	index := BuildIndex(dir, "") // empty dirs are skipped
	require.Len(t, index, 1)
	assert.Equal(t, "Strobe", index[0].Title)
	assert.Equal(t, "deadmau5", index[0].Artist)
}
