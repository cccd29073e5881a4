package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Read reads identity metadata from a music file. When the tag header is
// missing or unreadable it falls back to the "Artist - Title" filename
// convention most P2P rips follow; in that case Album stays empty.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if t, ok := FromFilename(path); ok {
			return t, nil
		}
		return nil, err
	}

	t := &Tag{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}
	if t.Title == "" {
		if fromName, ok := FromFilename(path); ok {
			t.Title = fromName.Title
			if t.Artist == "" {
				t.Artist = fromName.Artist
			}
		} else {
			t.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}
	return t, nil
}

// FromFilename derives artist and title from an "Artist - Title.ext"
// basename. Returns false when the name doesn't follow the convention.
func FromFilename(path string) (*Tag, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(base, " - ", 2)
	if len(parts) != 2 {
		return nil, false
	}
	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return nil, false
	}
	return &Tag{Title: title, Artist: artist}, true
}
