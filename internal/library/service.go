// Library sync: resolver-driven discovery of channels, playlists and
// audiobooks. All discovery is strictly additive; entries which disappear
// from the remote are never removed from the catalog here.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/youtube"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("LibraryServ")

type (
	// Resolver is the remote-source surface the library needs: identity
	// resolution and listings only, no media fetching.
	Resolver interface {
		ResolveCollection(ctx context.Context, url string) (*youtube.CollectionInfo, error)
		ListSubCollections(ctx context.Context, channelURL string) ([]youtube.CollectionInfo, error)
		ListItems(ctx context.Context, playlistURL string) ([]youtube.ItemInfo, error)
	}

	DataStore interface {
		GetChannel(id uuid.UUID) (*catalog.Channel, error)
		GetChannelWithRemoteID(remoteID string) (*catalog.Channel, error)
		CreateChannelWithPlaylists(channel *catalog.Channel, playlists []*catalog.Playlist) error
		GetPlaylist(id uuid.UUID) (*catalog.Playlist, error)
		ListPlaylistsForChannel(channelID uuid.UUID) ([]*catalog.Playlist, error)
		CreatePlaylists(playlists []*catalog.Playlist) error
		ListAudiobooksForPlaylist(playlistID uuid.UUID) ([]*catalog.Audiobook, error)
		CreateAudiobooks(audiobooks []*catalog.Audiobook) error
	}

	// SyncResult reports what a discovery pass saw and what it actually
	// added; Found-Added entries were already known.
	SyncResult struct {
		Found int `json:"found"`
		Added int `json:"added"`
	}

	libraryService struct {
		resolver  Resolver
		dataStore DataStore
	}
)

func New(resolver Resolver, dataStore DataStore) *libraryService {
	return &libraryService{resolver: resolver, dataStore: dataStore}
}

// AddChannel resolves the collection behind the given URL and registers it
// in the catalog along with its discovered playlists. Adding a channel
// which is already tracked (under any URL variant) is a no-op returning the
// existing row; the created flag tells the caller which happened.
func (service *libraryService) AddChannel(ctx context.Context, url string) (*catalog.Channel, bool, error) {
	info, err := service.resolver.ResolveCollection(ctx, url)
	if err != nil {
		return nil, false, err
	}

	existing, err := service.dataStore.GetChannelWithRemoteID(info.RemoteID)
	if err == nil {
		log.Debugf("Channel with remote ID %s already tracked, skipping creation\n", info.RemoteID)
		return existing, false, nil
	} else if !errors.Is(err, catalog.ErrChannelNotFound) {
		return nil, false, err
	}

	channel := &catalog.Channel{
		ID:           uuid.New(),
		RemoteID:     info.RemoteID,
		Title:        info.Title,
		Description:  nullable(info.Description),
		ThumbnailURL: nullable(info.ThumbnailURL),
		OriginURL:    info.OriginURL,
	}

	subCollections, err := service.resolver.ListSubCollections(ctx, url)
	if err != nil {
		// A channel with no listable playlists is still worth tracking;
		// a later sync can pick the playlists up.
		log.Warnf("Playlist discovery for channel %s failed: %s\n", info.RemoteID, err)
		subCollections = nil
	}

	playlists := make([]*catalog.Playlist, 0, len(subCollections))
	seen := make(map[string]struct{}, len(subCollections))
	for _, sub := range subCollections {
		if _, ok := seen[sub.RemoteID]; ok {
			continue
		}
		seen[sub.RemoteID] = struct{}{}

		playlists = append(playlists, playlistFromInfo(channel.ID, sub))
	}

	if err := service.dataStore.CreateChannelWithPlaylists(channel, playlists); err != nil {
		return nil, false, fmt.Errorf("failed to save channel %s: %w", info.RemoteID, err)
	}

	log.Infof("Added channel '%s' (%s) with %d playlists\n", channel.Title, channel.RemoteID, len(playlists))
	return channel, true, nil
}

// SyncChannel re-runs playlist discovery for a tracked channel, adding any
// playlists which have appeared remotely since it was last synced.
func (service *libraryService) SyncChannel(ctx context.Context, channelID uuid.UUID) (*SyncResult, error) {
	channel, err := service.dataStore.GetChannel(channelID)
	if err != nil {
		return nil, err
	}

	subCollections, err := service.resolver.ListSubCollections(ctx, channel.OriginURL)
	if err != nil {
		return nil, err
	}

	existing, err := service.dataStore.ListPlaylistsForChannel(channelID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, playlist := range existing {
		known[playlist.RemoteID] = struct{}{}
	}

	discovered := make([]*catalog.Playlist, 0)
	for _, sub := range subCollections {
		if _, ok := known[sub.RemoteID]; ok {
			continue
		}
		known[sub.RemoteID] = struct{}{}

		discovered = append(discovered, playlistFromInfo(channelID, sub))
	}

	// All discoveries for this channel land in one transaction; the sync
	// either applies fully or not at all.
	if err := service.dataStore.CreatePlaylists(discovered); err != nil {
		return nil, fmt.Errorf("failed to save discovered playlists for channel %s: %w", channelID, err)
	}

	result := &SyncResult{Found: len(subCollections), Added: len(discovered)}
	log.Infof("Synced channel %s: %d playlists found, %d added\n", channelID, result.Found, result.Added)
	return result, nil
}

// SyncPlaylist re-runs item discovery for a tracked playlist, adding any
// entries which have appeared remotely since it was last synced.
func (service *libraryService) SyncPlaylist(ctx context.Context, playlistID uuid.UUID) (*SyncResult, error) {
	playlist, err := service.dataStore.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}

	items, err := service.resolver.ListItems(ctx, playlist.OriginURL)
	if err != nil {
		return nil, err
	}

	existing, err := service.dataStore.ListAudiobooksForPlaylist(playlistID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, audiobook := range existing {
		known[audiobook.RemoteID] = struct{}{}
	}

	discovered := make([]*catalog.Audiobook, 0)
	for _, item := range items {
		if _, ok := known[item.RemoteID]; ok {
			continue
		}
		known[item.RemoteID] = struct{}{}

		discovered = append(discovered, audiobookFromInfo(playlistID, item))
	}

	// All discoveries for this playlist land in one transaction; the sync
	// either applies fully or not at all.
	if err := service.dataStore.CreateAudiobooks(discovered); err != nil {
		return nil, fmt.Errorf("failed to save discovered audiobooks for playlist %s: %w", playlistID, err)
	}

	result := &SyncResult{Found: len(items), Added: len(discovered)}
	log.Infof("Synced playlist %s: %d items found, %d added\n", playlistID, result.Found, result.Added)
	return result, nil
}

func playlistFromInfo(channelID uuid.UUID, info youtube.CollectionInfo) *catalog.Playlist {
	return &catalog.Playlist{
		ID:           uuid.New(),
		RemoteID:     info.RemoteID,
		Title:        info.Title,
		Description:  nullable(info.Description),
		ThumbnailURL: nullable(info.ThumbnailURL),
		OriginURL:    info.OriginURL,
		ChannelID:    channelID,
	}
}

func audiobookFromInfo(playlistID uuid.UUID, info youtube.ItemInfo) *catalog.Audiobook {
	return &catalog.Audiobook{
		ID:              uuid.New(),
		RemoteID:        info.RemoteID,
		Title:           info.Title,
		Description:     nullable(info.Description),
		ThumbnailURL:    nullable(info.ThumbnailURL),
		MediaURL:        info.MediaURL,
		UploadDate:      info.UploadDate,
		DurationSeconds: info.DurationSeconds,
		PlaylistID:      playlistID,
	}
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
