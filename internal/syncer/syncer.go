// Package syncer runs the playlist sync loop: fetch catalog, reconcile
// against disk, download what's missing.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/guilhermewolf/spotify-slsk/internal/config"
	"github.com/guilhermewolf/spotify-slsk/internal/download"
	"github.com/guilhermewolf/spotify-slsk/internal/library"
	"github.com/guilhermewolf/spotify-slsk/internal/notify"
	"github.com/guilhermewolf/spotify-slsk/internal/retry"
	"github.com/guilhermewolf/spotify-slsk/internal/spotify"
	"github.com/guilhermewolf/spotify-slsk/internal/store"
	"github.com/guilhermewolf/spotify-slsk/internal/tags"
)

// Catalog lists playlist contents.
type Catalog interface {
	PlaylistName(ctx context.Context, playlistID string) (string, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.CatalogTrack, error)
}

// ReadyWaiter blocks until the transfer daemon answers, or the context
// expires.
type ReadyWaiter interface {
	WaitReady(ctx context.Context, interval time.Duration) error
}

// Downloader runs one acquisition attempt for one track.
type Downloader interface {
	Attempt(ctx context.Context, title string, artists []string, tried map[string]struct{}, markTried func(basename string)) (string, error)
}

// Syncer owns the sync loop. All collaborators are injected; it holds no
// global state.
type Syncer struct {
	cfg       *config.Config
	store     *store.Store
	catalog   Catalog
	ready     ReadyWaiter
	download  Downloader
	notifier  notify.Notifier
	policy    retry.Policy
	playlists []string
	rng       *rand.Rand
	log       *log.Logger
}

func New(cfg *config.Config, st *store.Store, catalog Catalog, ready ReadyWaiter, dl Downloader, notifier notify.Notifier, logger *log.Logger) (*Syncer, error) {
	playlists := make([]string, 0, len(cfg.Spotify.Playlists))
	for _, ref := range cfg.Spotify.Playlists {
		id, err := spotify.ParsePlaylistID(ref)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", ref, err)
		}
		playlists = append(playlists, id)
	}

	return &Syncer{
		cfg:      cfg,
		store:    st,
		catalog:  catalog,
		ready:    ready,
		download: dl,
		notifier: notifier,
		policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Cooldown:    cfg.Retry.Cooldown(),
			BackoffBase: cfg.Retry.BackoffBaseDuration(),
			JitterMin:   cfg.Retry.JitterMin,
			JitterMax:   cfg.Retry.JitterMax,
		},
		playlists: playlists,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       logger,
	}, nil
}

// Run blocks until ctx is cancelled. It waits for the transfer daemon
// first; an unreachable daemon at startup is fatal rather than silently
// retried forever.
func (s *Syncer) Run(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Slskd.StartupTimeout)*time.Second)
	err := s.ready.WaitReady(readyCtx, 2*time.Second)
	cancel()
	if err != nil {
		return fmt.Errorf("slskd not reachable: %w", err)
	}
	s.log.Info("slskd is up, starting sync loop",
		"playlists", len(s.playlists),
		"interval", time.Duration(s.cfg.Sync.Interval)*time.Second)

	for {
		s.SyncOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err := sleepCtx(ctx, time.Duration(s.cfg.Sync.Interval)*time.Second); err != nil {
			return nil
		}
	}
}

// SyncOnce runs a single cycle over every configured playlist. Per-playlist
// errors are logged and do not stop the cycle.
func (s *Syncer) SyncOnce(ctx context.Context) {
	for _, id := range s.playlists {
		if ctx.Err() != nil {
			return
		}
		if err := s.syncPlaylist(ctx, id); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.log.Error("playlist sync failed", "playlist", id, "err", err)
		}
	}

	if s.cfg.Sync.CleanupOrphans && ctx.Err() == nil {
		s.cleanupOrphans()
	}
}

func (s *Syncer) syncPlaylist(ctx context.Context, playlistID string) error {
	name, err := s.catalog.PlaylistName(ctx, playlistID)
	if err != nil {
		s.log.Warn("playlist name lookup failed", "playlist", playlistID, "err", err)
		name = playlistID
	}

	catalogTracks, err := s.catalog.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("fetch tracks: %w", err)
	}

	newCount := 0
	for _, ct := range catalogTracks {
		inserted, err := s.store.InsertNew(store.Track{
			ID:         ct.ID,
			PlaylistID: playlistID,
			Name:       ct.Title,
			Artists:    store.JoinArtists(ct.Artists),
			Album:      ct.Album,
		})
		if err != nil {
			return fmt.Errorf("insert track %s: %w", ct.ID, err)
		}
		if inserted {
			newCount++
			s.log.Info("new track", "playlist", name, "track", ct.Title)
		}
	}
	if newCount > 0 {
		s.push(ctx, fmt.Sprintf("%s: %d new track(s) to fetch", name, newCount))
	}

	if err := s.reconcile(playlistID, name); err != nil {
		return err
	}

	return s.downloadPending(ctx, playlistID, name)
}

// reconcile runs the sweep over the playlist's tracks and persists its
// decisions.
func (s *Syncer) reconcile(playlistID, name string) error {
	tracks, err := s.store.TracksForPlaylist(playlistID)
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}

	index := library.BuildIndex(s.cfg.Sync.LibraryDir, s.cfg.Slskd.DownloadsDir)
	changes := library.Sweep(tracks, index, library.SweepOptions{
		AdoptThreshold:        s.cfg.Match.AdoptThreshold,
		VerifyThreshold:       s.cfg.Match.VerifyThreshold,
		PermissiveSingleToken: s.cfg.Match.PermissiveSingleToken,
	})

	now := time.Now()
	for _, ch := range changes {
		switch ch.Kind {
		case library.AdoptPath:
			s.log.Info("adopted existing file",
				"playlist", name, "track", ch.TrackID, "path", ch.Path, "score", fmt.Sprintf("%.2f", ch.Score))
			if err := s.store.MarkSuccess(ch.PlaylistID, ch.TrackID, ch.Path, now); err != nil {
				s.log.Error("persist adoption", "track", ch.TrackID, "err", err)
			}
		case library.DemotePath:
			s.log.Warn("file vanished, track back to pending", "playlist", name, "track", ch.TrackID)
			if err := s.store.ClearPath(ch.PlaylistID, ch.TrackID); err != nil {
				s.log.Error("persist demotion", "track", ch.TrackID, "err", err)
			}
		}
	}

	return nil
}

// cleanupOrphans runs the opt-in orphan cleanup once per cycle against the
// whole catalog. Playlists share the library dir, so judging a file against
// a single playlist's tracks would misclassify other playlists' downloads
// as orphans.
func (s *Syncer) cleanupOrphans() {
	tracks, err := s.store.AllTracks()
	if err != nil {
		s.log.Error("load tracks for cleanup", "err", err)
		return
	}
	dryRun := s.cfg.Sync.CleanupDryRun == nil || *s.cfg.Sync.CleanupDryRun
	library.CleanupOrphans([]string{s.cfg.Sync.LibraryDir}, tracks, s.cfg.Match.VerifyThreshold, dryRun, s.log)
}

// downloadPending attempts every eligible pending track, one at a time.
func (s *Syncer) downloadPending(ctx context.Context, playlistID, name string) error {
	tracks, err := s.store.TracksForPlaylist(playlistID)
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}

	for i := range tracks {
		t := &tracks[i]
		if !retry.Eligible(t, time.Now()) {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if t.Attempts > 0 {
			wait := retry.Backoff(t.Attempts, s.policy, s.rng)
			s.log.Debug("backing off before retry", "track", t.Name, "attempts", t.Attempts, "wait", wait)
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
		}

		if err := s.attemptTrack(ctx, t, name); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
		}
	}
	return nil
}

func (s *Syncer) attemptTrack(ctx context.Context, t *store.Track, playlistName string) error {
	tried, err := s.store.TriedFiles(t.ID)
	if err != nil {
		return fmt.Errorf("load tried files: %w", err)
	}

	s.log.Info("attempting download", "playlist", playlistName, "track", t.Name, "artists", t.Artists, "attempt", t.Attempts+1)

	path, err := s.download.Attempt(ctx, t.Name, t.ArtistNames(), tried, func(basename string) {
		if err := s.store.AddTriedFile(t.ID, basename); err != nil {
			s.log.Error("record tried file", "track", t.ID, "file", basename, "err", err)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		now := time.Now()
		attempts, suspendedUntil := retry.Failure(t, now, s.policy)
		if suspendedUntil != nil {
			s.log.Warn("track suspended",
				"track", t.Name, "attempts", attempts, "until", suspendedUntil.Format(time.RFC3339))
		} else {
			s.log.Warn("attempt failed", "track", t.Name, "attempts", attempts, "err", err)
		}
		if err := s.store.MarkFailure(t.PlaylistID, t.ID, now, suspendedUntil); err != nil {
			return fmt.Errorf("persist failure: %w", err)
		}
		return nil
	}

	if err := s.store.MarkSuccess(t.PlaylistID, t.ID, path, time.Now()); err != nil {
		return fmt.Errorf("persist success: %w", err)
	}
	s.logSuccess(t, path)

	s.writeTags(path, t)

	remaining, err := s.store.RemainingCount(t.PlaylistID)
	if err == nil && remaining == 0 {
		s.push(ctx, fmt.Sprintf("%s: playlist fully downloaded", playlistName))
	}
	return nil
}

func (s *Syncer) logSuccess(t *store.Track, path string) {
	size := "unknown size"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	s.log.Info("downloaded", "track", t.Name, "path", path, "size", size)
}

// writeTags stamps the catalog identity onto the file. Unsupported formats
// and tag write failures are logged and skipped; the file is already
// verified.
func (s *Syncer) writeTags(path string, t *store.Track) {
	err := tags.Write(path, &tags.Tag{
		Title:  t.Name,
		Artist: t.Artists,
		Album:  t.Album,
	})
	switch {
	case errors.Is(err, tags.ErrUnsupported):
		s.log.Debug("tag format unsupported, leaving file as is", "path", path)
	case err != nil:
		s.log.Warn("write tags", "path", path, "err", err)
	}
}

// push sends a notification, logging failures only.
func (s *Syncer) push(ctx context.Context, message string) {
	if err := s.notifier.Push(ctx, message); err != nil {
		s.log.Warn("push notification", "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Downloader = (*download.Orchestrator)(nil)
