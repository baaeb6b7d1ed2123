package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/database"
)

type (
	// Channel is a remote collection of playlists tracked by the catalog.
	// Channels are only ever created via resolver-driven discovery; the
	// RemoteID is the stable identity used for deduplication.
	Channel struct {
		ID           uuid.UUID `db:"id"`
		RemoteID     string    `db:"remote_id"`
		Title        string    `db:"title"`
		Description  *string   `db:"description"`
		ThumbnailURL *string   `db:"thumbnail_url"`
		OriginURL    string    `db:"origin_url"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	// Playlist belongs to exactly one channel. The Author field is free-text
	// attribution supplied by the user after creation; discovery never
	// populates it.
	Playlist struct {
		ID           uuid.UUID `db:"id"`
		RemoteID     string    `db:"remote_id"`
		Title        string    `db:"title"`
		Description  *string   `db:"description"`
		ThumbnailURL *string   `db:"thumbnail_url"`
		OriginURL    string    `db:"origin_url"`
		Author       *string   `db:"author"`
		ChannelID    uuid.UUID `db:"channel_id"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	// Audiobook is a single materializable item belonging to a playlist.
	// The materialization fields (LocalPath onwards) are only ever written
	// by the download service.
	Audiobook struct {
		ID              uuid.UUID  `db:"id"`
		RemoteID        string     `db:"remote_id"`
		Title           string     `db:"title"`
		Description     *string    `db:"description"`
		Summary         *string    `db:"summary"`
		ThumbnailURL    *string    `db:"thumbnail_url"`
		MediaURL        string     `db:"media_url"`
		UploadDate      *time.Time `db:"upload_date"`
		LocalPath       *string    `db:"local_path"`
		DurationSeconds *float64   `db:"duration_seconds"`
		FileSizeBytes   *int64     `db:"file_size_bytes"`
		IsFetched       bool       `db:"is_fetched"`
		IsEncoded       bool       `db:"is_encoded"`
		ProgressPercent float64    `db:"progress_percent"`
		PlaylistID      uuid.UUID  `db:"playlist_id"`
		CreatedAt       time.Time  `db:"created_at"`
		UpdatedAt       time.Time  `db:"updated_at"`
	}

	noteBase struct {
		ID              uuid.UUID `db:"id"`
		Content         string    `db:"content"`
		Quote           *string   `db:"quote"`
		PositionSeconds *float64  `db:"position_seconds"`
		AudiobookID     uuid.UUID `db:"audiobook_id"`
		CreatedAt       time.Time `db:"created_at"`
		UpdatedAt       time.Time `db:"updated_at"`
	}

	// noteModel is the row representation of a note; the discussion
	// transcript is held behind a JsonColumn. We use a separate struct as
	// part of the public API of this store to hide the use of the
	// JsonColumn container to prevent against breakages if we change
	// this in the future.
	noteModel struct {
		noteBase
		Discussion database.JsonColumn[Transcript] `db:"discussion"`
	}

	// Note is the external/public API for the note model. Discussion is
	// the decoded transcript; a NULL or unparseable column reads as an
	// empty transcript.
	Note struct {
		ID              uuid.UUID
		Content         string
		Quote           *string
		PositionSeconds *float64
		AudiobookID     uuid.UUID
		Discussion      Transcript
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}
)

func noteModelToNote(model *noteModel) *Note {
	note := &Note{
		ID:              model.ID,
		Content:         model.Content,
		Quote:           model.Quote,
		PositionSeconds: model.PositionSeconds,
		AudiobookID:     model.AudiobookID,
		Discussion:      Transcript{},
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if transcript := model.Discussion.Get(); transcript != nil {
		note.Discussion = *transcript
	}

	return note
}

func noteToModel(note *Note) noteModel {
	return noteModel{
		noteBase: noteBase{
			ID:              note.ID,
			Content:         note.Content,
			Quote:           note.Quote,
			PositionSeconds: note.PositionSeconds,
			AudiobookID:     note.AudiobookID,
			CreatedAt:       note.CreatedAt,
			UpdatedAt:       note.UpdatedAt,
		},
	}
}
