package match

import (
	"reflect"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Strobe", "strobe"},
		{"STROBE", "strobe"},
		{"Strobe (Original Mix)", "strobe"},
		{"One More Time [320kbps FLAC]", "one more time"},
		{"What's Going On", "what s going on"},
		{"Hello-World", "hello world"},
		{"  Thriller  ", "thriller"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeTitle(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripStopPhrases(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"language radio edit", "language"},
		{"strobe extended mix", "strobe"},
		{"clarity instrumental", "clarity"},
		{"sandstorm remastered", "sandstorm"},
		// stop phrases only match whole words
		{"editorial cleaners", "editorial cleaners"},
		{"remix", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := stripStopPhrases(tt.input)
			if got != tt.expected {
				t.Errorf("stripStopPhrases(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"deadmau5", []string{"deadmau5"}},
		{"Above & Beyond", []string{"above", "beyond"}},
		{"Artist One, Artist Two", []string{"artist one", "artist two"}},
		{"Zedd feat. Foxes", []string{"zedd", "foxes"}},
		{"A ft. B", []string{"a", "b"}},
		{"Simon and Garfunkel", []string{"simon", "garfunkel"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SplitArtists(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitArtists(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
