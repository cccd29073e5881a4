package library

import (
	"os"
	"strings"

	"github.com/guilhermewolf/spotify-slsk/internal/match"
	"github.com/guilhermewolf/spotify-slsk/internal/store"
	"github.com/guilhermewolf/spotify-slsk/internal/tags"
)

// SweepOptions sets the score thresholds for the reconciliation sweep.
type SweepOptions struct {
	AdoptThreshold  float64 // minimum score to adopt an indexed file
	VerifyThreshold float64 // minimum score to keep an existing path

	// PermissiveSingleToken accepts adoptions whose matched title is a
	// single word with no artist corroboration. Off by default; short
	// titles collide too easily ("Home", "Alive").
	PermissiveSingleToken bool
}

// ChangeKind says what the sweep decided for a track.
type ChangeKind int

const (
	// AdoptPath binds the track to an existing on-disk file.
	AdoptPath ChangeKind = iota
	// DemotePath clears a vanished path so the track becomes pending again.
	DemotePath
)

// Change is one sweep decision. The caller persists it; the sweep itself
// writes nothing.
type Change struct {
	PlaylistID string
	TrackID    string
	Kind       ChangeKind
	Path       string // set for AdoptPath
	Score      float64
}

// Sweep reconciles tracks against the on-disk index. Tracks whose path
// still verifies are untouched. Missing or mismatched paths get the best
// index match above the adopt threshold; downloaded tracks with nothing to
// adopt are demoted back to pending. Never-downloaded tracks may be adopted
// too, which is how files acquired out of band enter the catalog.
func Sweep(tracks []store.Track, index []IndexedFile, opts SweepOptions) []Change {
	var changes []Change

	for i := range tracks {
		t := &tracks[i]

		if t.Path != "" && verifyPath(t, opts.VerifyThreshold) {
			continue
		}

		if file, score, ok := bestMatch(t, index, opts); ok {
			changes = append(changes, Change{
				PlaylistID: t.PlaylistID,
				TrackID:    t.ID,
				Kind:       AdoptPath,
				Path:       file.Path,
				Score:      score,
			})
			continue
		}

		if t.Downloaded {
			changes = append(changes, Change{
				PlaylistID: t.PlaylistID,
				TrackID:    t.ID,
				Kind:       DemotePath,
			})
		}
	}
	return changes
}

// verifyPath checks that the file still exists and still looks like the
// track. Verification is permissive: a file whose tags are unreadable falls
// back to its filename, and a missing artist tag does not fail it as long
// as the title holds.
func verifyPath(t *store.Track, threshold float64) bool {
	if _, err := os.Stat(t.Path); err != nil {
		return false
	}
	tag, err := tags.Read(t.Path)
	if err != nil {
		return false
	}
	res := match.Score(t.Name, t.ArtistNames(), tag.Title, tag.Artist)
	return res.Score >= threshold
}

// bestMatch finds the highest-scoring indexed file above the adopt
// threshold, subject to the single-token guard.
func bestMatch(t *store.Track, index []IndexedFile, opts SweepOptions) (IndexedFile, float64, bool) {
	var best IndexedFile
	bestScore := 0.0
	found := false

	artists := t.ArtistNames()
	for _, f := range index {
		res := match.Score(t.Name, artists, f.Title, f.Artist)
		if res.Score < opts.AdoptThreshold || res.Score <= bestScore {
			continue
		}
		if !opts.PermissiveSingleToken && singleTokenUncorroborated(f, artists) {
			continue
		}
		best = f
		bestScore = res.Score
		found = true
	}
	return best, bestScore, found
}

// singleTokenUncorroborated reports a risky match: the file's normalized
// title is a single word and its artist tag backs up none of the track's
// artists.
func singleTokenUncorroborated(f IndexedFile, artists []string) bool {
	tokens := strings.Fields(match.NormalizeTitle(f.Title))
	if len(tokens) > 1 {
		return false
	}
	if f.Artist == "" {
		return true
	}
	fileArtist := strings.ToLower(f.Artist)
	for _, a := range artists {
		if match.PartialRatio(fileArtist, strings.ToLower(a)) >= 70 {
			return false
		}
	}
	return true
}
