// Package download selects download candidates from Soulseek search results
// and drives single-track acquisition attempts against slskd.
package download

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/guilhermewolf/spotify-slsk/internal/match"
	"github.com/guilhermewolf/spotify-slsk/internal/slskd"
)

// Candidate is a remote file that passed format and fuzzy-match filtering,
// ready to be enqueued.
type Candidate struct {
	Username  string
	Filename  string // full remote path, as slskd reports it
	Basename  string
	Size      int64
	BitRate   int // 0 when the peer did not report one
	Extension string
	Score     float64 // filename vs title, 0-100
}

// SelectOptions controls candidate filtering and ordering.
type SelectOptions struct {
	PreferredFormats []string // lowercase dot-prefixed, in preference order
	MinBitRate       int      // kbps floor, applied to MP3s with a known bitrate only
	MinTitleScore    float64  // 0-100
	MinArtistScore   float64  // 0-100
}

// SelectStats tracks how many files were filtered out and why.
type SelectStats struct {
	TotalFiles   int
	WrongFormat  int
	LowBitRate   int
	LowScore     int
	AlreadyTried int
	Locked       int
	Accepted     int
}

// SelectCandidates filters slskd search responses down to plausible matches
// for the given title and artists, ordered best-first. Files whose basename
// is already in tried are dropped so a known-bad file is never retried.
func SelectCandidates(responses []slskd.SearchResponse, title string, artists []string, opts SelectOptions, tried map[string]struct{}) ([]Candidate, SelectStats) {
	var stats SelectStats

	candidates := make([]Candidate, 0, 16)
	for i := range responses {
		resp := &responses[i]
		for _, f := range resp.Files {
			stats.TotalFiles++

			if f.IsLocked {
				stats.Locked++
				continue
			}

			ext := fileExtension(f)
			idx := formatIndex(ext, opts.PreferredFormats)
			if idx < 0 {
				stats.WrongFormat++
				continue
			}

			// An unknown bitrate never disqualifies; peers frequently
			// omit it for perfectly good files.
			if ext == ".mp3" && f.BitRate > 0 && f.BitRate < opts.MinBitRate {
				stats.LowBitRate++
				continue
			}

			base := remoteBasename(f.Filename)
			if _, done := tried[base]; done {
				stats.AlreadyTried++
				continue
			}

			cleaned := cleanFilename(base)
			titleScore := match.PartialRatio(cleaned, strings.ToLower(title))
			if titleScore < opts.MinTitleScore {
				stats.LowScore++
				continue
			}
			if !artistScoreClears(cleaned, artists, opts.MinArtistScore) {
				stats.LowScore++
				continue
			}

			candidates = append(candidates, Candidate{
				Username:  resp.Username,
				Filename:  f.Filename,
				Basename:  base,
				Size:      f.Size,
				BitRate:   f.BitRate,
				Extension: ext,
				Score:     titleScore,
			})
		}
	}

	stats.Accepted = len(candidates)

	// Format preference dominates; bitrate is the tie-break, with unknown
	// bitrates sorted after known ones.
	sort.SliceStable(candidates, func(i, j int) bool {
		fi := formatIndex(candidates[i].Extension, opts.PreferredFormats)
		fj := formatIndex(candidates[j].Extension, opts.PreferredFormats)
		if fi != fj {
			return fi < fj
		}
		bi, bj := candidates[i].BitRate, candidates[j].BitRate
		if (bi > 0) != (bj > 0) {
			return bi > 0
		}
		return bi > bj
	})

	return candidates, stats
}

// artistScoreClears checks the cleaned filename against each expected artist
// name and accepts when any of them clears the threshold.
func artistScoreClears(cleaned string, artists []string, min float64) bool {
	if len(artists) == 0 {
		return true
	}
	for _, a := range artists {
		if match.PartialRatio(cleaned, strings.ToLower(a)) >= min {
			return true
		}
	}
	return false
}

// formatIndex returns the position of ext in the preferred-format list, or
// -1 when the format is not wanted at all.
func formatIndex(ext string, preferred []string) int {
	for i, p := range preferred {
		if ext == p {
			return i
		}
	}
	return -1
}

// fileExtension returns the lowercase dot-prefixed extension, falling back
// to the filename when the peer left the Extension field empty.
func fileExtension(f slskd.File) string {
	ext := strings.ToLower(f.Extension)
	if ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext
	}
	if idx := strings.LastIndex(f.Filename, "."); idx != -1 {
		return strings.ToLower(f.Filename[idx:])
	}
	return ""
}

// remoteBasename extracts the basename from a remote path. Peers run both
// Unix and Windows, so either separator can appear.
func remoteBasename(remote string) string {
	return path.Base(strings.ReplaceAll(remote, "\\", "/"))
}

var (
	bracketSegRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	qualityTagRe = regexp.MustCompile(`(?i)\b\d{2,4}\s*kbps\b|\b\d{2}(?:[.,]\d)?\s*khz\b|\b(?:19|20)\d{2}\b`)
	separatorRe  = regexp.MustCompile(`[-_.]+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// cleanFilename strips the noise P2P rips carry in their names (bracketed
// rip info, bitrate and year tags, separator characters) so the fuzzy match
// sees only words.
func cleanFilename(base string) string {
	name := strings.TrimSuffix(base, path.Ext(base))
	name = strings.ToLower(name)
	name = bracketSegRe.ReplaceAllString(name, " ")
	name = qualityTagRe.ReplaceAllString(name, " ")
	name = separatorRe.ReplaceAllString(name, " ")
	name = spaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
