package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/guilhermewolf/spotify-slsk/internal/slskd"
)

// ErrExhausted signals that every candidate for a track was tried and none
// produced a verified file. It counts as one failed attempt.
var ErrExhausted = errors.New("all download candidates exhausted")

// Transport is the slskd surface the orchestrator needs. *slskd.Client
// satisfies it.
type Transport interface {
	Search(query string) (string, error)
	GetSearch(searchID string) (*slskd.Search, error)
	GetSearchResponses(searchID string) ([]slskd.SearchResponse, error)
	DeleteSearch(searchID string) error
	Enqueue(username string, files []slskd.File) error
	GetDownloads() ([]slskd.Transfer, error)
	CancelDownload(username, downloadID string) error
}

// Options configures a single acquisition attempt.
type Options struct {
	Select           SelectOptions
	DownloadsDir     string // where slskd places completed files
	IncompleteDir    string // staging area still being written, never accepted
	SearchTimeout    time.Duration
	TransferTimeout  time.Duration
	StabilityTimeout time.Duration // wait for external movers to settle
}

const (
	searchPollInterval   = time.Second
	transferPollInterval = 2 * time.Second
	locateTimeout        = 10 * time.Second
	locatePollInterval   = time.Second
	stabilityPoll        = 2 * time.Second
)

// Orchestrator runs one download attempt for one track at a time.
type Orchestrator struct {
	transport Transport
	opts      Options
	log       *log.Logger
}

func New(transport Transport, opts Options, logger *log.Logger) *Orchestrator {
	return &Orchestrator{transport: transport, opts: opts, log: logger}
}

// Attempt searches Soulseek for the track and works through the candidate
// list until one file lands on disk and stays put. Candidates that fail for
// any reason are handed to markTried and skipped on subsequent attempts.
// Returns ErrExhausted when no candidate worked out.
func (o *Orchestrator) Attempt(ctx context.Context, title string, artists []string, tried map[string]struct{}, markTried func(basename string)) (string, error) {
	query := sanitizeQuery(title, artists)
	responses, err := o.runSearch(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", query, err)
	}

	candidates, stats := SelectCandidates(responses, title, artists, o.opts.Select, tried)
	o.log.Debug("candidates selected",
		"query", query,
		"files", stats.TotalFiles,
		"accepted", stats.Accepted,
		"wrong_format", stats.WrongFormat,
		"low_score", stats.LowScore,
		"tried", stats.AlreadyTried)
	if len(candidates) == 0 {
		return "", ErrExhausted
	}

	for _, c := range candidates {
		path, err := o.tryCandidate(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			o.log.Warn("candidate failed",
				"user", c.Username, "file", c.Basename, "err", err)
			tried[c.Basename] = struct{}{}
			markTried(c.Basename)
			continue
		}
		return path, nil
	}
	return "", ErrExhausted
}

// runSearch starts a search, waits bounded for it to complete, and returns
// whatever responses arrived. The search is deleted afterwards so slskd's
// search list doesn't grow without bound.
func (o *Orchestrator) runSearch(ctx context.Context, query string) ([]slskd.SearchResponse, error) {
	searchID, err := o.transport.Search(query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := o.transport.DeleteSearch(searchID); err != nil {
			o.log.Debug("delete search", "id", searchID, "err", err)
		}
	}()

	deadline := time.Now().Add(o.opts.SearchTimeout)
	for time.Now().Before(deadline) {
		s, err := o.transport.GetSearch(searchID)
		if err != nil {
			return nil, err
		}
		if s.IsComplete() {
			break
		}
		if err := sleepCtx(ctx, searchPollInterval); err != nil {
			return nil, err
		}
	}

	return o.transport.GetSearchResponses(searchID)
}

// tryCandidate enqueues one file and follows it all the way to a stable
// local path.
func (o *Orchestrator) tryCandidate(ctx context.Context, c Candidate) (string, error) {
	err := o.transport.Enqueue(c.Username, []slskd.File{{Filename: c.Filename, Size: c.Size}})
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	if err := o.waitTerminal(ctx, c); err != nil {
		return "", err
	}

	path, err := o.waitStablePath(ctx, c.Basename)
	if err != nil {
		return "", err
	}
	return path, nil
}

// waitTerminal locates the transfer among slskd's downloads and polls it to
// a terminal state. Transfers that never show up, time out or end in a
// failed state all reject the candidate.
func (o *Orchestrator) waitTerminal(ctx context.Context, c Candidate) error {
	tr, err := o.locateTransfer(ctx, c)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(o.opts.TransferTimeout)
	for {
		switch {
		case tr.State.Succeeded():
			return nil
		case tr.State.Failed():
			return fmt.Errorf("transfer ended in state %q", tr.State)
		case time.Now().After(deadline):
			// Take the stuck transfer out of slskd's queue so it does
			// not keep retrying in the background.
			if err := o.transport.CancelDownload(tr.Username, tr.ID); err != nil {
				o.log.Debug("cancel stuck transfer", "id", tr.ID, "err", err)
			}
			return fmt.Errorf("transfer timed out in state %q", tr.State)
		}

		if err := sleepCtx(ctx, transferPollInterval); err != nil {
			return err
		}
		next, err := o.findTransfer(c)
		if err != nil {
			return err
		}
		if next != nil {
			tr = next
		}
	}
}

// locateTransfer waits briefly for the enqueued file to appear in slskd's
// transfer list. slskd registers it asynchronously after the enqueue call.
func (o *Orchestrator) locateTransfer(ctx context.Context, c Candidate) (*slskd.Transfer, error) {
	deadline := time.Now().Add(locateTimeout)
	for {
		tr, err := o.findTransfer(c)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			return tr, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.New("transfer never appeared in the download queue")
		}
		if err := sleepCtx(ctx, locatePollInterval); err != nil {
			return nil, err
		}
	}
}

func (o *Orchestrator) findTransfer(c Candidate) (*slskd.Transfer, error) {
	transfers, err := o.transport.GetDownloads()
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	for i := range transfers {
		t := &transfers[i]
		if t.Username == c.Username && t.Size == c.Size && remoteBasename(t.Filename) == c.Basename {
			return t, nil
		}
	}
	return nil, nil
}

// waitStablePath resolves the downloaded file's real on-disk location. An
// external mover (beets, a post-processing script) may relocate the file
// right after slskd finishes, so the path is only accepted once it sits
// outside the incomplete staging area and its size has stopped changing
// between two polls.
func (o *Orchestrator) waitStablePath(ctx context.Context, basename string) (string, error) {
	deadline := time.Now().Add(o.opts.StabilityTimeout)

	var lastPath string
	var lastSize int64 = -1
	for {
		path, size, found := findLocalFile(o.opts.DownloadsDir, o.opts.IncompleteDir, basename)
		if found && path == lastPath && size == lastSize {
			return path, nil
		}
		if found {
			lastPath, lastSize = path, size
		}

		if time.Now().After(deadline) {
			if found {
				return path, nil
			}
			return "", fmt.Errorf("file %q never settled outside the incomplete dir", basename)
		}
		if err := sleepCtx(ctx, stabilityPoll); err != nil {
			return "", err
		}
	}
}

// findLocalFile walks root looking for basename, skipping anything under
// incompleteDir and any path segment named "incomplete".
func findLocalFile(root, incompleteDir, basename string) (string, int64, bool) {
	var foundPath string
	var foundSize int64

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if underIncomplete(p, incompleteDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != basename || underIncomplete(p, incompleteDir) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		foundPath = p
		foundSize = info.Size()
		return filepath.SkipAll
	})

	if foundPath == "" {
		return "", 0, false
	}
	return foundPath, foundSize, true
}

func underIncomplete(p, incompleteDir string) bool {
	if incompleteDir != "" {
		if rel, err := filepath.Rel(incompleteDir, p); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if strings.EqualFold(seg, "incomplete") {
			return true
		}
	}
	return false
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// sanitizeQuery builds the Soulseek search text from title and first artist,
// with punctuation stripped. Peers index plain words; punctuation only
// narrows results.
func sanitizeQuery(title string, artists []string) string {
	q := title
	if len(artists) > 0 {
		q += " " + artists[0]
	}
	q = nonWordRe.ReplaceAllString(strings.ToLower(q), " ")
	return strings.TrimSpace(q)
}

// sleepCtx sleeps for d or returns early with the context's error.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
