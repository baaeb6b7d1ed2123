package notes

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
)

type (
	Dto struct {
		ID              uuid.UUID `json:"id"`
		Content         string    `json:"content"`
		Quote           *string   `json:"quote"`
		PositionSeconds *float64  `json:"position_seconds"`
		AudiobookID     uuid.UUID `json:"audiobook_id"`
		HasDiscussion   bool      `json:"has_discussion"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	discussionDto struct {
		History catalog.Transcript `json:"history"`
	}
)

func NewDto(note *catalog.Note) Dto {
	return Dto{
		ID:              note.ID,
		Content:         note.Content,
		Quote:           note.Quote,
		PositionSeconds: note.PositionSeconds,
		AudiobookID:     note.AudiobookID,
		HasDiscussion:   len(note.Discussion) > 0,
		CreatedAt:       note.CreatedAt,
		UpdatedAt:       note.UpdatedAt,
	}
}
