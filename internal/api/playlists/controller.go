package playlists

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
	UpdateRequest struct {
		Author *string `json:"author" validate:"omitempty,max=255"`
	}

	Store interface {
		GetPlaylist(id uuid.UUID) (*catalog.Playlist, error)
		ListPlaylists() ([]*catalog.Playlist, error)
		ListAudiobooksForPlaylist(playlistID uuid.UUID) ([]*catalog.Audiobook, error)
		SetPlaylistAuthor(id uuid.UUID, author string) error
		DeletePlaylist(id uuid.UUID) error
	}

	LibraryService interface {
		SyncPlaylist(ctx context.Context, playlistID uuid.UUID) (*library.SyncResult, error)
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
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.PATCH("/:id/", controller.update)
	eg.DELETE("/:id/", controller.delete)
	eg.POST("/:id/sync/", controller.sync)
	eg.GET("/:id/audiobooks/", controller.listAudiobooks)
}

func (controller *Controller) list(ec echo.Context) error {
	playlists, err := controller.store.ListPlaylists()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing playlists: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(playlists, NewDto))
}

func (controller *Controller) get(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Playlist ID is not a valid UUID")
	}

	playlist, err := controller.store.GetPlaylist(id)
	if err != nil {
		if errors.Is(err, catalog.ErrPlaylistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Playlist not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.JSON(http.StatusOK, NewDto(playlist))
}

// update applies user-editable fields to a playlist. Only the author
// attribution is editable; everything else is owned by discovery.
func (controller *Controller) update(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Playlist ID is not a valid UUID")
	}

	var updateRequest UpdateRequest
	if err := ec.Bind(&updateRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(updateRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if updateRequest.Author != nil {
		if err := controller.store.SetPlaylistAuthor(id, *updateRequest.Author); err != nil {
			if errors.Is(err, catalog.ErrPlaylistNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Playlist not found")
			}

			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
	}

	playlist, err := controller.store.GetPlaylist(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.JSON(http.StatusOK, NewDto(playlist))
}

func (controller *Controller) delete(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Playlist ID is not a valid UUID")
	}

	if err := controller.store.DeletePlaylist(id); err != nil {
		if errors.Is(err, catalog.ErrPlaylistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Playlist not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return ec.NoContent(http.StatusOK)
}

// sync re-runs item discovery for the playlist, reporting how many entries
// the remote listed and how many were newly added to the catalog.
func (controller *Controller) sync(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Playlist ID is not a valid UUID")
	}

	result, err := controller.library.SyncPlaylist(ec.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrPlaylistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Playlist not found")
		} else if youtube.IsNotResolvable(err) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("Playlist could not be resolved: %s", err))
		}

		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to sync playlist: %s", err))
	}

	return ec.JSON(http.StatusOK, result)
}

func (controller *Controller) listAudiobooks(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Playlist ID is not a valid UUID")
	}

	if _, err := controller.store.GetPlaylist(id); err != nil {
		if errors.Is(err, catalog.ErrPlaylistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Playlist not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	audiobooks, err := controller.store.ListAudiobooksForPlaylist(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing audiobooks: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(audiobooks, newAudiobookStubDto))
}
