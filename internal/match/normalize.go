package match

import (
	"regexp"
	"strings"
)

var (
	bracketRe       = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	punctuationRe   = regexp.MustCompile(`[^\w\s]`)
	multipleSpaceRe = regexp.MustCompile(`\s+`)
	artistSplitRe   = regexp.MustCompile(`\s*(?:,|&|\bfeat\.?\b|\bft\.?\b|\band\b)\s*`)
)

// stopPhraseRe matches variant descriptors that carry no identity: a title
// that differs only by one of these still names the same recording. Longer
// phrases come first so "radio edit" is consumed before "edit".
var stopPhraseRe = regexp.MustCompile(
	`\b(original mix|extended mix|radio edit|club mix|remastered|remaster|instrumental|bootleg|remix|edit|clean|vip)\b`)

// NormalizeTitle lowercases, strips bracketed segments, replaces punctuation
// with spaces and collapses whitespace.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = bracketRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripStopPhrases removes variant descriptors from an already-normalized
// title.
func stripStopPhrases(s string) string {
	s = stopPhraseRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// titleTokens returns the set of words in a title after normalization and
// stop-phrase stripping.
func titleTokens(title string) map[string]struct{} {
	cleaned := stripStopPhrases(NormalizeTitle(title))
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// SplitArtists splits a free-text artist string on the usual P2P join
// patterns (comma, &, "and", "feat.", "ft.") into normalized artist names.
func SplitArtists(s string) []string {
	s = strings.ToLower(s)
	parts := artistSplitRe.Split(s, -1)
	var names []string
	for _, p := range parts {
		p = NormalizeTitle(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// artistTokens flattens artist names into a set of individual word tokens.
func artistTokens(names []string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, name := range names {
		for _, part := range SplitArtists(name) {
			for _, tok := range strings.Fields(part) {
				tokens[tok] = struct{}{}
			}
		}
	}
	return tokens
}

func setsIntersect(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
