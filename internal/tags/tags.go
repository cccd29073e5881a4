// Package tags provides tag reading and writing for acquired music files.
// Only the basic identity fields are handled; anything beyond
// title/artist/album is out of scope for the mirror.
package tags

import (
	"errors"
	"path/filepath"
	"strings"
)

// File extensions the acquisition pipeline encounters.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtAIFF = ".aiff"
	ExtWAV  = ".wav"
)

// ErrUnsupported marks a format without tag write support. Callers are
// expected to log and move on, never to fail an acquisition over it.
var ErrUnsupported = errors.New("unsupported tag format")

// Tag holds the basic identity metadata of a music file.
type Tag struct {
	Title  string
	Artist string
	Album  string
}

var musicExtensions = map[string]bool{
	ExtMP3:  true,
	ExtFLAC: true,
	ExtAIFF: true,
	ExtWAV:  true,
}

// IsMusicFile reports whether the path has a supported audio extension.
func IsMusicFile(path string) bool {
	return musicExtensions[strings.ToLower(filepath.Ext(path))]
}
