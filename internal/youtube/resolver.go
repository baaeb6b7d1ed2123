package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const maxDescriptionLength = 500

type (
	// CollectionInfo is the resolved identity of a remote channel or
	// playlist, independent of the URL variant used to reach it.
	CollectionInfo struct {
		RemoteID     string
		Title        string
		Description  string
		ThumbnailURL string
		OriginURL    string
	}

	// ItemInfo is a single playable entry of a remote playlist.
	ItemInfo struct {
		RemoteID        string
		Title           string
		Description     string
		ThumbnailURL    string
		MediaURL        string
		DurationSeconds *float64
		UploadDate      *time.Time
	}
)

// ResolveCollection fetches the identity of the collection behind the given
// URL. Any URL variant pointing at the same channel (handle, /channel/ID,
// legacy /user/ form) resolves to the same stable remote ID, which is what
// the catalog dedupes on.
func (client *Client) ResolveCollection(ctx context.Context, url string) (*CollectionInfo, error) {
	info, err := client.extractInfo(ctx, url, true, 1)
	if err != nil {
		return nil, err
	}

	remoteID := firstNonEmpty(info.ChannelID, info.UploaderID, info.ID)
	if remoteID == "" {
		return nil, &NoIdentityError{url: url}
	}

	return &CollectionInfo{
		RemoteID:     remoteID,
		Title:        firstNonEmpty(info.Channel, info.Uploader, info.Title, "Unknown Channel"),
		Description:  truncateDescription(info.Description),
		ThumbnailURL: info.bestThumbnailURL(),
		OriginURL:    url,
	}, nil
}

// ListSubCollections enumerates the playlists belonging to the channel at
// the given URL. Channel URLs are rewritten to their /playlists listing
// before extraction; the fetch is capped at the configured page size so a
// channel with thousands of playlists cannot stall a sync.
func (client *Client) ListSubCollections(ctx context.Context, channelURL string) ([]CollectionInfo, error) {
	info, err := client.extractInfo(ctx, playlistsListingURL(channelURL), true, client.config.PlaylistPageSize)
	if err != nil {
		return nil, err
	}

	collections := make([]CollectionInfo, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry == nil || entry.ID == "" {
			// Flat listings pad deleted or region-locked entries with
			// nulls; skip them rather than failing the whole listing.
			continue
		}

		if entry.kind() == entryKindMedia {
			continue
		}

		collections = append(collections, CollectionInfo{
			RemoteID:     entry.ID,
			Title:        firstNonEmpty(entry.Title, "Untitled Playlist"),
			Description:  truncateDescription(entry.Description),
			ThumbnailURL: entry.bestThumbnailURL(),
			OriginURL:    canonicalPlaylistURL(entry),
		})
	}

	return collections, nil
}

// ListItems enumerates the playable entries of the playlist at the given
// URL, in the remote's presentation order.
func (client *Client) ListItems(ctx context.Context, playlistURL string) ([]ItemInfo, error) {
	info, err := client.extractInfo(ctx, playlistURL, true, 0)
	if err != nil {
		return nil, err
	}

	items := make([]ItemInfo, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry == nil || entry.ID == "" {
			continue
		}

		if entry.kind() == entryKindNestedListing {
			continue
		}

		items = append(items, ItemInfo{
			RemoteID:        entry.ID,
			Title:           firstNonEmpty(entry.Title, "Untitled"),
			Description:     truncateDescription(entry.Description),
			ThumbnailURL:    entry.bestThumbnailURL(),
			MediaURL:        canonicalMediaURL(entry),
			DurationSeconds: entry.Duration,
			UploadDate:      entry.uploadDate(),
		})
	}

	return items, nil
}

// playlistsListingURL rewrites a channel URL to its playlists tab. Playlist
// URLs and already-suffixed channel URLs pass through untouched.
func playlistsListingURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if strings.HasSuffix(trimmed, "/playlists") || isListingURL(trimmed) {
		return trimmed
	}

	return trimmed + "/playlists"
}

func isListingURL(url string) bool {
	return strings.Contains(url, "playlist?list=")
}

func canonicalPlaylistURL(entry *rawEntry) string {
	if entry.URL != "" {
		return entry.URL
	}

	return fmt.Sprintf("https://www.youtube.com/playlist?list=%s", entry.ID)
}

func canonicalMediaURL(entry *rawEntry) string {
	if entry.URL != "" && !strings.HasPrefix(entry.URL, "http") {
		// Flat listings may emit a bare video ID in place of a URL.
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s", entry.URL)
	}

	if entry.URL != "" {
		return entry.URL
	}

	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", entry.ID)
}

func truncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= maxDescriptionLength {
		return description
	}

	return string(runes[:maxDescriptionLength])
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}

	return ""
}
