package playlists

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
		Author       *string   `json:"author"`
		ChannelID    uuid.UUID `json:"channel_id"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	audiobookStubDto struct {
		ID              uuid.UUID `json:"id"`
		RemoteID        string    `json:"remote_id"`
		Title           string    `json:"title"`
		ThumbnailURL    *string   `json:"thumbnail_url"`
		DurationSeconds *float64  `json:"duration_seconds"`
		IsFetched       bool      `json:"is_fetched"`
		ProgressPercent float64   `json:"progress_percent"`
	}
)

func NewDto(playlist *catalog.Playlist) Dto {
	return Dto{
		ID:           playlist.ID,
		RemoteID:     playlist.RemoteID,
		Title:        playlist.Title,
		Description:  playlist.Description,
		ThumbnailURL: playlist.ThumbnailURL,
		OriginURL:    playlist.OriginURL,
		Author:       playlist.Author,
		ChannelID:    playlist.ChannelID,
		CreatedAt:    playlist.CreatedAt,
		UpdatedAt:    playlist.UpdatedAt,
	}
}

func newAudiobookStubDto(audiobook *catalog.Audiobook) audiobookStubDto {
	return audiobookStubDto{
		ID:              audiobook.ID,
		RemoteID:        audiobook.RemoteID,
		Title:           audiobook.Title,
		ThumbnailURL:    audiobook.ThumbnailURL,
		DurationSeconds: audiobook.DurationSeconds,
		IsFetched:       audiobook.IsFetched,
		ProgressPercent: audiobook.ProgressPercent,
	}
}
