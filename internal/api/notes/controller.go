package notes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tomelib/tome/internal/api/util"
	"github.com/tomelib/tome/internal/catalog"
)

type (
	CreateRequest struct {
		AudiobookID     uuid.UUID `json:"audiobook_id" validate:"required"`
		Content         string    `json:"content" validate:"required"`
		Quote           *string   `json:"quote"`
		PositionSeconds *float64  `json:"position_seconds" validate:"omitempty,gte=0"`
	}

	UpdateRequest struct {
		Content         *string  `json:"content" validate:"omitempty,min=1"`
		Quote           *string  `json:"quote"`
		PositionSeconds *float64 `json:"position_seconds" validate:"omitempty,gte=0"`
	}

	Store interface {
		GetAudiobook(id uuid.UUID) (*catalog.Audiobook, error)
		GetNote(id uuid.UUID) (*catalog.Note, error)
		ListNotes() ([]*catalog.Note, error)
		ListNotesForAudiobook(audiobookID uuid.UUID) ([]*catalog.Note, error)
		CreateNote(note *catalog.Note) error
		UpdateNote(note *catalog.Note) error
		DeleteNote(id uuid.UUID) error
	}

	Controller struct {
		store    Store
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, store Store) *Controller {
	return &Controller{store: store, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.create)
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.PATCH("/:id/", controller.update)
	eg.DELETE("/:id/", controller.delete)
	eg.GET("/:id/discussion/", controller.getDiscussion)
}

func (controller *Controller) create(ec echo.Context) error {
	var createRequest CreateRequest
	if err := ec.Bind(&createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if _, err := controller.store.GetAudiobook(createRequest.AudiobookID); err != nil {
		if errors.Is(err, catalog.ErrAudiobookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Audiobook not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	note := &catalog.Note{
		ID:              uuid.New(),
		Content:         createRequest.Content,
		Quote:           createRequest.Quote,
		PositionSeconds: createRequest.PositionSeconds,
		AudiobookID:     createRequest.AudiobookID,
	}

	if err := controller.store.CreateNote(note); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to create note: %s", err))
	}

	saved, err := controller.store.GetNote(note.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.JSON(http.StatusCreated, NewDto(saved))
}

// list returns all notes, optionally scoped to a single audiobook via the
// audiobook_id query parameter.
func (controller *Controller) list(ec echo.Context) error {
	var (
		notes []*catalog.Note
		err   error
	)

	if rawID := ec.QueryParam("audiobook_id"); rawID != "" {
		audiobookID, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "audiobook_id is not a valid UUID")
		}

		notes, err = controller.store.ListNotesForAudiobook(audiobookID)
	} else {
		notes, err = controller.store.ListNotes()
	}

	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing notes: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(notes, NewDto))
}

func (controller *Controller) get(ec echo.Context) error {
	note, err := controller.fetchNote(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewDto(note))
}

func (controller *Controller) update(ec echo.Context) error {
	note, err := controller.fetchNote(ec)
	if err != nil {
		return err
	}

	var updateRequest UpdateRequest
	if err := ec.Bind(&updateRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(updateRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if updateRequest.Content != nil {
		note.Content = *updateRequest.Content
	}
	if updateRequest.Quote != nil {
		note.Quote = updateRequest.Quote
	}
	if updateRequest.PositionSeconds != nil {
		note.PositionSeconds = updateRequest.PositionSeconds
	}

	if err := controller.store.UpdateNote(note); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to update note: %s", err))
	}

	return ec.JSON(http.StatusOK, NewDto(note))
}

func (controller *Controller) delete(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Note ID is not a valid UUID")
	}

	if err := controller.store.DeleteNote(id); err != nil {
		if errors.Is(err, catalog.ErrNoteNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.NoContent(http.StatusOK)
}

// getDiscussion returns the stored discussion transcript for this note. A
// note with no discussion yet (or one whose stored transcript could not be
// read) yields an empty history rather than an error.
func (controller *Controller) getDiscussion(ec echo.Context) error {
	note, err := controller.fetchNote(ec)
	if err != nil {
		return err
	}

	history := note.Discussion
	if history == nil {
		history = catalog.Transcript{}
	}

	return ec.JSON(http.StatusOK, discussionDto{History: history})
}

func (controller *Controller) fetchNote(ec echo.Context) (*catalog.Note, error) {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Note ID is not a valid UUID")
	}

	note, err := controller.store.GetNote(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNoteNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}

		return nil, echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return note, nil
}
