// Package spotify fetches playlist contents from the Spotify Web API under
// client-credentials auth. Only public playlist reads are needed, so no
// user authorization flow is involved.
package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// CatalogTrack is one playlist entry, reduced to the fields the acquisition
// pipeline needs.
type CatalogTrack struct {
	ID      string
	Title   string
	Artists []string
	Album   string
}

// Client wraps the Spotify Web API client.
type Client struct {
	api *spotify.Client
}

// NewClient authenticates with the client-credentials grant and returns a
// ready client. The underlying oauth2 transport refreshes the token as it
// expires.
func NewClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify auth: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{api: spotify.New(httpClient)}, nil
}

// PlaylistName returns the playlist's display name.
func (c *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	p, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return "", fmt.Errorf("get playlist %s: %w", playlistID, err)
	}
	return p.Name, nil
}

// PlaylistTracks fetches every track of the playlist, following pagination
// to the end. Non-track items (podcast episodes, removed tracks) are
// skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]CatalogTrack, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("get playlist items %s: %w", playlistID, err)
	}

	var tracks []CatalogTrack
	for {
		for _, item := range page.Items {
			full := item.Track.Track
			if full == nil || full.ID == "" {
				continue
			}
			artists := make([]string, 0, len(full.Artists))
			for _, a := range full.Artists {
				artists = append(artists, a.Name)
			}
			tracks = append(tracks, CatalogTrack{
				ID:      string(full.ID),
				Title:   full.Name,
				Artists: artists,
				Album:   full.Album.Name,
			})
		}

		err = c.api.NextPage(ctx, page)
		if err == spotify.ErrNoMorePages {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("next page of %s: %w", playlistID, err)
		}
	}
	return tracks, nil
}

// ParsePlaylistID extracts the playlist ID from whatever form the config
// uses: a bare ID, a spotify:playlist: URI, or an open.spotify.com URL.
func ParsePlaylistID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty playlist reference")
	}

	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 || parts[1] != "playlist" || parts[2] == "" {
			return "", fmt.Errorf("malformed playlist URI %q", raw)
		}
		return parts[2], nil
	}

	if strings.Contains(raw, "open.spotify.com") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("malformed playlist URL %q: %w", raw, err)
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segs {
			if seg == "playlist" && i+1 < len(segs) && segs[i+1] != "" {
				return segs[i+1], nil
			}
		}
		return "", fmt.Errorf("no playlist ID in URL %q", raw)
	}

	if strings.ContainsAny(raw, "/:?&") {
		return "", fmt.Errorf("unrecognized playlist reference %q", raw)
	}
	return raw, nil
}
