package audiobooks

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
)

type (
	Dto struct {
		ID              uuid.UUID  `json:"id"`
		RemoteID        string     `json:"remote_id"`
		Title           string     `json:"title"`
		Description     *string    `json:"description"`
		Summary         *string    `json:"summary"`
		ThumbnailURL    *string    `json:"thumbnail_url"`
		MediaURL        string     `json:"media_url"`
		UploadDate      *time.Time `json:"upload_date"`
		LocalPath       *string    `json:"local_path"`
		DurationSeconds *float64   `json:"duration_seconds"`
		FileSizeBytes   *int64     `json:"file_size_bytes"`
		IsFetched       bool       `json:"is_fetched"`
		IsEncoded       bool       `json:"is_encoded"`
		ProgressPercent float64    `json:"progress_percent"`
		PlaylistID      uuid.UUID  `json:"playlist_id"`
		CreatedAt       time.Time  `json:"created_at"`
		UpdatedAt       time.Time  `json:"updated_at"`
	}

	materializeResponse struct {
		Status string `json:"status"`
	}

	summaryResponse struct {
		Summary string `json:"summary"`
	}
)

func NewDto(audiobook *catalog.Audiobook) Dto {
	return Dto{
		ID:              audiobook.ID,
		RemoteID:        audiobook.RemoteID,
		Title:           audiobook.Title,
		Description:     audiobook.Description,
		Summary:         audiobook.Summary,
		ThumbnailURL:    audiobook.ThumbnailURL,
		MediaURL:        audiobook.MediaURL,
		UploadDate:      audiobook.UploadDate,
		LocalPath:       audiobook.LocalPath,
		DurationSeconds: audiobook.DurationSeconds,
		FileSizeBytes:   audiobook.FileSizeBytes,
		IsFetched:       audiobook.IsFetched,
		IsEncoded:       audiobook.IsEncoded,
		ProgressPercent: audiobook.ProgressPercent,
		PlaylistID:      audiobook.PlaylistID,
		CreatedAt:       audiobook.CreatedAt,
		UpdatedAt:       audiobook.UpdatedAt,
	}
}
