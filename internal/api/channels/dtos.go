package channels

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
)

type (
	Dto struct {
		ID           uuid.UUID `json:"id"`
		RemoteID     string    `json:"remote_id"`
		Title        string    `json:"title"`
		Description  *string   `json:"description"`
		ThumbnailURL *string   `json:"thumbnail_url"`
		OriginURL    string    `json:"origin_url"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	playlistStubDto struct {
		ID           uuid.UUID `json:"id"`
		RemoteID     string    `json:"remote_id"`
		Title        string    `json:"title"`
		ThumbnailURL *string   `json:"thumbnail_url"`
		Author       *string   `json:"author"`
	}
)

func NewDto(channel *catalog.Channel) Dto {
	return Dto{
		ID:           channel.ID,
		RemoteID:     channel.RemoteID,
		Title:        channel.Title,
		Description:  channel.Description,
		ThumbnailURL: channel.ThumbnailURL,
		OriginURL:    channel.OriginURL,
		CreatedAt:    channel.CreatedAt,
		UpdatedAt:    channel.UpdatedAt,
	}
}

func newPlaylistStubDto(playlist *catalog.Playlist) playlistStubDto {
	return playlistStubDto{
		ID:           playlist.ID,
		RemoteID:     playlist.RemoteID,
		Title:        playlist.Title,
		ThumbnailURL: playlist.ThumbnailURL,
		Author:       playlist.Author,
	}
}
