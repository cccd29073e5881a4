// Package library reconciles persisted track state with the files actually
// on disk. It never moves or deletes files during reconciliation; the only
// destructive operation is the opt-in orphan cleanup.
package library

import (
	"io/fs"
	"path/filepath"

	"github.com/guilhermewolf/spotify-slsk/internal/tags"
)

// IndexedFile is one audio file found on disk with whatever identity could
// be read from it.
type IndexedFile struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// BuildIndex walks the given directories and indexes every audio file by
// its embedded tags, falling back to the "Artist - Title" filename
// convention. Unreadable files and walk errors are skipped; a partial index
// only makes the sweep adopt less, never misbehave.
func BuildIndex(dirs ...string) []IndexedFile {
	var index []IndexedFile
	seen := make(map[string]struct{})

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if d.IsDir() || !tags.IsMusicFile(path) {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}

			t, err := tags.Read(path)
			if err != nil {
				return nil
			}
			index = append(index, IndexedFile{
				Path:   path,
				Title:  t.Title,
				Artist: t.Artist,
				Album:  t.Album,
			})
			return nil
		})
	}
	return index
}
