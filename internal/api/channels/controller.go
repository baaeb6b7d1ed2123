package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tomelib/tome/internal/api/util"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/library"
	"github.com/tomelib/tome/internal/youtube"
)

type (
	CreateRequest struct {
		URL string `json:"url" validate:"required,url"`
	}

	Store interface {
		GetChannel(id uuid.UUID) (*catalog.Channel, error)
		ListChannels() ([]*catalog.Channel, error)
		ListPlaylistsForChannel(channelID uuid.UUID) ([]*catalog.Playlist, error)
		DeleteChannel(id uuid.UUID) error
	}

	LibraryService interface {
		AddChannel(ctx context.Context, url string) (*catalog.Channel, bool, error)
		SyncChannel(ctx context.Context, channelID uuid.UUID) (*library.SyncResult, error)
	}

	Controller struct {
		store    Store
		library  LibraryService
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, libraryService LibraryService, store Store) *Controller {
	return &Controller{store: store, library: libraryService, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.create)
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.DELETE("/:id/", controller.delete)
	eg.POST("/:id/sync/", controller.sync)
	eg.GET("/:id/playlists/", controller.listPlaylists)
}

// create registers a new channel from a user-provided URL. The URL is
// resolved remotely before anything is saved; submitting a URL variant of
// an already tracked channel returns the existing row rather than a
// duplicate.
func (controller *Controller) create(ec echo.Context) error {
	var createRequest CreateRequest
	if err := ec.Bind(&createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	channel, created, err := controller.library.AddChannel(ec.Request().Context(), createRequest.URL)
	if err != nil {
		if youtube.IsNotResolvable(err) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("Channel URL could not be resolved: %s", err))
		}

		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to add channel: %s", err))
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}

	return ec.JSON(status, NewDto(channel))
}

func (controller *Controller) list(ec echo.Context) error {
	channels, err := controller.store.ListChannels()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing channels: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(channels, NewDto))
}

func (controller *Controller) get(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Channel ID is not a valid UUID")
	}

	channel, err := controller.store.GetChannel(id)
	if err != nil {
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.JSON(http.StatusOK, NewDto(channel))
}

// delete removes a channel and, through the catalog's cascading deletes,
// every playlist, audiobook and note beneath it.
func (controller *Controller) delete(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Channel ID is not a valid UUID")
	}

	if err := controller.store.DeleteChannel(id); err != nil {
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.NoContent(http.StatusOK)
}

// sync re-runs playlist discovery for the channel, reporting how many
// playlists were seen remotely and how many were newly added.
func (controller *Controller) sync(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Channel ID is not a valid UUID")
	}

	result, err := controller.library.SyncChannel(ec.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
		} else if youtube.IsNotResolvable(err) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("Channel could not be resolved: %s", err))
		}

		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to sync channel: %s", err))
	}

	return ec.JSON(http.StatusOK, result)
}

func (controller *Controller) listPlaylists(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Channel ID is not a valid UUID")
	}

	if _, err := controller.store.GetChannel(id); err != nil {
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	playlists, err := controller.store.ListPlaylistsForChannel(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing playlists: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(playlists, newPlaylistStubDto))
}
