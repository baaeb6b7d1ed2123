package discussions

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/openai"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("Discussions")

type (
	DiscussRequest struct {
		Quote   string             `json:"quote" validate:"required"`
		Context string             `json:"context"`
		NoteID  *uuid.UUID         `json:"note_id"`
		History catalog.Transcript `json:"history"`
	}

	DiscussResponse struct {
		Response string             `json:"response"`
		History  catalog.Transcript `json:"history"`
	}

	Store interface {
		GetNote(id uuid.UUID) (*catalog.Note, error)
		SaveNoteDiscussion(id uuid.UUID, transcript catalog.Transcript) error
	}

	DiscussService interface {
		Enabled() bool
		DiscussQuote(ctx context.Context, quote string, question string, history catalog.Transcript) (catalog.Transcript, string, error)
	}

	Controller struct {
		store    Store
		service  DiscussService
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, service DiscussService, store Store) *Controller {
	return &Controller{store: store, service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.discuss)
}

// discuss advances a quote discussion by exactly one exchange: the caller's
// question (or an implicit opener/continuation) plus the assistant's reply.
// When a note ID is supplied, the grown transcript is persisted against
// that note; persistence failures do not fail the exchange.
func (controller *Controller) discuss(ec echo.Context) error {
	if !controller.service.Enabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Quote discussion is not configured")
	}

	var request DiscussRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if request.NoteID != nil {
		if _, err := controller.store.GetNote(*request.NoteID); err != nil {
			if errors.Is(err, catalog.ErrNoteNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Note not found")
			}

			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
	}

	history, reply, err := controller.service.DiscussQuote(ec.Request().Context(), request.Quote, request.Context, request.History)
	if err != nil {
		if errors.Is(err, openai.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Quote discussion is not configured")
		}

		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Discussion failed: %s", err))
	}

	if request.NoteID != nil {
		if err := controller.store.SaveNoteDiscussion(*request.NoteID, history); err != nil {
			log.Warnf("Failed to persist discussion for note %s: %s\n", request.NoteID, err)
		}
	}

	return ec.JSON(http.StatusOK, DiscussResponse{Response: reply, History: history})
}
