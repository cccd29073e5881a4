// Package match scores how likely a candidate file corresponds to a catalog
// track. Filenames on the Soulseek network are free text, frequently missing
// artist or album data and padded with remix/bitrate noise, so scoring runs
// a few precise short-circuit rules before falling back to character-level
// similarity.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Score rule constants. The short-circuit rules award a fixed confidence
// depending on whether the artist side corroborates the title match.
const (
	scoreTokenSetWithArtist = 0.97
	scoreTokenSet           = 0.90
	scoreRemixEqWithArtist  = 0.95
	scoreRemixEq            = 0.88

	artistOverlapBoost = 0.05
)

// Result is the outcome of scoring a candidate against a catalog track.
type Result struct {
	Score  float64
	Reason string
}

// Score compares a catalog track (title plus ordered artist names) against a
// candidate title/artist pair and returns a confidence in [0,1].
//
// Rules are ordered, first match wins:
//  1. title token-set equivalence, scored by artist overlap
//  2. remix-normalized title equivalence, scored by artist overlap
//  3. weighted character-similarity blend
func Score(catalogTitle string, catalogArtists []string, candTitle, candArtist string) Result {
	if strings.TrimSpace(candTitle) == "" {
		return Result{Score: 0, Reason: "empty candidate title"}
	}

	wantTokens := titleTokens(catalogTitle)
	gotTokens := titleTokens(candTitle)
	wantArtists := artistTokens(catalogArtists)
	gotArtists := artistTokens([]string{candArtist})
	artistsOverlap := setsIntersect(wantArtists, gotArtists)

	// Rule 1: token-set equivalence. The smaller set must be contained in
	// the larger, or overlap with it on all but one token.
	if tokenSetsEquivalent(wantTokens, gotTokens) {
		if artistsOverlap {
			return Result{Score: scoreTokenSetWithArtist, Reason: "title token-set match, artist corroborated"}
		}
		return Result{Score: scoreTokenSet, Reason: "title token-set match"}
	}

	// Rule 2: equality after unifying hyphen/parenthesis remix markers.
	if remixNormalized(catalogTitle) == remixNormalized(candTitle) {
		if artistsOverlap {
			return Result{Score: scoreRemixEqWithArtist, Reason: "remix-normalized title match, artist corroborated"}
		}
		return Result{Score: scoreRemixEq, Reason: "remix-normalized title match"}
	}

	// Rule 3: character-level fallback.
	titleSim := Ratio(stripStopPhrases(NormalizeTitle(catalogTitle)), stripStopPhrases(NormalizeTitle(candTitle)))
	artistSim := artistSimilarity(catalogArtists, candArtist)

	score := titleSim
	if blended := 0.75*titleSim + 0.25*artistSim; blended > score {
		score = blended
	}
	if artistsOverlap {
		score += artistOverlapBoost
	}
	return Result{Score: clamp01(score), Reason: "character similarity"}
}

// tokenSetsEquivalent reports whether two title token sets name the same
// recording: the smaller set is a subset of the larger, or misses at most
// one token of the overlap.
func tokenSetsEquivalent(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return intersectionSize(a, b) >= smaller-1 && intersectionSize(a, b) > 0
}

// remixNormalized unifies "Title - Some Remix" and "Title (Some Remix)"
// spellings before comparison.
func remixNormalized(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "(", " ")
	s = strings.ReplaceAll(s, ")", " ")
	s = strings.ReplaceAll(s, "[", " ")
	s = strings.ReplaceAll(s, "]", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = punctuationRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// artistSimilarity returns the best character similarity between the
// candidate artist string and any catalog artist name.
func artistSimilarity(catalogArtists []string, candArtist string) float64 {
	cand := NormalizeTitle(candArtist)
	if cand == "" {
		return 0
	}
	best := 0.0
	for _, name := range catalogArtists {
		if sim := Ratio(NormalizeTitle(name), cand); sim > best {
			best = sim
		}
	}
	return best
}

// Ratio is the Levenshtein similarity of two strings in [0,1].
func Ratio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(dist)/float64(maxLen)
}

// PartialRatio is the best Ratio of the shorter string against any
// equal-length window of the longer one, scaled to 0-100. It mirrors the
// fuzzy partial-ratio used to accept search hits whose filenames embed the
// title inside extra noise.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if strings.Contains(string(rb), string(ra)) {
		return 100
	}
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		window := string(rb[i : i+len(ra)])
		if sim := Ratio(string(ra), window); sim > best {
			best = sim
		}
	}
	return best * 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
