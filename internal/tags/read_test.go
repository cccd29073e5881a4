package tags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromFilename(t *testing.T) {
	tests := []struct {
		path       string
		wantArtist string
		wantTitle  string
		wantOK     bool
	}{
		{"/music/deadmau5 - Strobe.flac", "deadmau5", "Strobe", true},
		{"deadmau5 - Strobe.mp3", "deadmau5", "Strobe", true},
		// only the first separator splits, the rest stays in the title
		{"Above & Beyond - Sun - Moon.mp3", "Above & Beyond", "Sun - Moon", true},
		{"no separator.mp3", "", "", false},
		{" - Title.mp3", "", "", false},
		{"Artist - .mp3", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FromFilename(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("FromFilename(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Artist != tt.wantArtist || got.Title != tt.wantTitle {
				t.Errorf("FromFilename(%q) = %q/%q, want %q/%q",
					tt.path, got.Artist, got.Title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}

func TestReadFallsBackToFilename(t *testing.T) {
	// A file with no tag header at all; Read should still derive identity
	// from the name instead of failing.
	dir := t.TempDir()
	path := filepath.Join(dir, "deadmau5 - Strobe.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Artist != "deadmau5" || got.Title != "Strobe" {
		t.Errorf("Read() = %q/%q, want deadmau5/Strobe", got.Artist, got.Title)
	}
	if got.Album != "" {
		t.Errorf("Album = %q, want empty from filename fallback", got.Album)
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := Write(path, &Tag{Title: "x"})
	if err != ErrUnsupported {
		t.Errorf("Write(.wav) error = %v, want ErrUnsupported", err)
	}
}
