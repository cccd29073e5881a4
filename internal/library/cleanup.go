package library

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/guilhermewolf/spotify-slsk/internal/match"
	"github.com/guilhermewolf/spotify-slsk/internal/store"
	"github.com/guilhermewolf/spotify-slsk/internal/tags"
)

// CleanupReport lists what the orphan cleanup found and, when not in
// dry-run mode, what it deleted.
type CleanupReport struct {
	Orphans []string
	Deleted []string
}

// CleanupOrphans walks the given directories and flags audio files that
// belong to no catalog track: not referenced by any track path and not
// matching any track above the verify threshold. In dry-run mode (the
// default) orphans are only reported. Matching is heuristic, so deletion
// stays opt-in.
func CleanupOrphans(dirs []string, tracks []store.Track, verifyThreshold float64, dryRun bool, logger *log.Logger) CleanupReport {
	known := make(map[string]struct{}, len(tracks))
	for i := range tracks {
		if tracks[i].Path != "" {
			known[tracks[i].Path] = struct{}{}
		}
	}

	var report CleanupReport
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !tags.IsMusicFile(path) {
				return nil
			}
			if _, ok := known[path]; ok {
				return nil
			}
			if matchesAnyTrack(path, tracks, verifyThreshold) {
				return nil
			}

			report.Orphans = append(report.Orphans, path)
			if dryRun {
				logger.Info("orphan file (dry run, not deleting)", "path", path)
				return nil
			}
			if err := os.Remove(path); err != nil {
				logger.Warn("delete orphan", "path", path, "err", err)
				return nil
			}
			logger.Info("deleted orphan file", "path", path)
			report.Deleted = append(report.Deleted, path)
			return nil
		})
	}
	return report
}

func matchesAnyTrack(path string, tracks []store.Track, threshold float64) bool {
	tag, err := tags.Read(path)
	if err != nil {
		// Unverifiable file, leave it alone.
		return true
	}
	for i := range tracks {
		t := &tracks[i]
		res := match.Score(t.Name, t.ArtistNames(), tag.Title, tag.Artist)
		if res.Score >= threshold {
			return true
		}
	}
	return false
}
