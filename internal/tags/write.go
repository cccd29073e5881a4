package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// Write writes identity metadata to a music file in place. Formats without
// write support return ErrUnsupported.
func Write(path string, t *Tag) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		return writeMP3Tags(path, t)
	case ExtFLAC:
		return writeFLACTags(path, t)
	default:
		return ErrUnsupported
	}
}

// writeMP3Tags writes ID3v2 tags to an MP3 file.
func writeMP3Tags(path string, t *Tag) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer tag.Close()

	// ID3v2.4 with UTF-8 for proper Unicode support
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(t.Title)
	tag.SetArtist(t.Artist)
	tag.SetAlbum(t.Album)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// writeFLACTags writes Vorbis comments to a FLAC file.
func writeFLACTags(path string, t *Tag) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}

	// Always build a fresh comment block to avoid duplicate tags
	cmts := flacvorbis.New()
	addTag := func(key, value string) error {
		if value == "" {
			return nil
		}
		return cmts.Add(key, value)
	}
	if err := addTag(flacvorbis.FIELD_TITLE, t.Title); err != nil {
		return fmt.Errorf("add title: %w", err)
	}
	if err := addTag(flacvorbis.FIELD_ARTIST, t.Artist); err != nil {
		return fmt.Errorf("add artist: %w", err)
	}
	if err := addTag(flacvorbis.FIELD_ALBUM, t.Album); err != nil {
		return fmt.Errorf("add album: %w", err)
	}

	block := cmts.Marshal()

	// Replace the existing VORBIS_COMMENT block, or append one
	replaced := false
	for i, meta := range f.Meta {
		if meta.Type == flac.VorbisComment {
			f.Meta[i] = &block
			replaced = true
			break
		}
	}
	if !replaced {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}
