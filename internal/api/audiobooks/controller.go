package audiobooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tomelib/tome/internal/api/util"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/download"
	"github.com/tomelib/tome/internal/openai"
	"github.com/tomelib/tome/internal/youtube"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("Audiobooks")

type (
	Store interface {
		GetAudiobook(id uuid.UUID) (*catalog.Audiobook, error)
		ListAudiobooks() ([]*catalog.Audiobook, error)
		SetAudiobookSummary(id uuid.UUID, summary string) error
		DeleteAudiobook(id uuid.UUID) error
	}

	DownloadService interface {
		Request(audiobookID uuid.UUID) (download.RequestOutcome, error)
	}

	StreamResolver interface {
		ResolveStreamURL(ctx context.Context, mediaURL string) (string, error)
		StreamInfo(ctx context.Context, mediaURL string) (*youtube.StreamDebugInfo, error)
	}

	Summarizer interface {
		Enabled() bool
		Summarize(ctx context.Context, title string, description string) (string, error)
	}

	Controller struct {
		store           Store
		downloadService DownloadService
		streamResolver  StreamResolver
		summarizer      Summarizer
		storageRootPath string
	}
)

func New(downloadService DownloadService, streamResolver StreamResolver, summarizer Summarizer, storageRootPath string, store Store) *Controller {
	return &Controller{
		store:           store,
		downloadService: downloadService,
		streamResolver:  streamResolver,
		summarizer:      summarizer,
		storageRootPath: storageRootPath,
	}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.DELETE("/:id/", controller.delete)
	eg.POST("/:id/materialize/", controller.materialize)
	eg.GET("/:id/stream/", controller.stream)
	eg.GET("/:id/stream-info/", controller.streamInfo)
	eg.POST("/:id/summary/", controller.generateSummary)
}

func (controller *Controller) list(ec echo.Context) error {
	audiobooks, err := controller.store.ListAudiobooks()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Error occurred while listing audiobooks: %s", err))
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(audiobooks, NewDto))
}

func (controller *Controller) get(ec echo.Context) error {
	audiobook, err := controller.fetchAudiobook(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewDto(audiobook))
}

// delete removes an audiobook from the catalog and, if it was
// materialized, the audio artifact from the storage root. Failure to
// remove the file is logged but does not fail the request; the row is
// already gone and the orphaned file is harmless.
func (controller *Controller) delete(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Audiobook ID is not a valid UUID")
	}

	audiobook, err := controller.store.GetAudiobook(id)
	if err != nil {
		if errors.Is(err, catalog.ErrAudiobookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Audiobook not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	if err := controller.store.DeleteAudiobook(id); err != nil {
		if errors.Is(err, catalog.ErrAudiobookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Audiobook not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	if audiobook.LocalPath != nil {
		artifactPath := filepath.Join(controller.storageRootPath, strings.TrimPrefix(*audiobook.LocalPath, "/"))
		if err := os.Remove(artifactPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to remove audio artifact %s for deleted audiobook %s: %v\n", artifactPath, id, err)
		}
	}

	return ec.NoContent(http.StatusOK)
}

// materialize schedules a fetch+encode of this audiobook. The response
// distinguishes a newly accepted request from one that was already in
// flight or already satisfied; all three are success cases.
func (controller *Controller) materialize(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Audiobook ID is not a valid UUID")
	}

	outcome, err := controller.downloadService.Request(id)
	if err != nil {
		if errors.Is(err, catalog.ErrAudiobookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Audiobook not found")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to request materialization: %s", err))
	}

	switch outcome {
	case download.OutcomeAccepted:
		return ec.JSON(http.StatusAccepted, materializeResponse{Status: "accepted"})
	case download.OutcomeAlreadyRequested:
		return ec.JSON(http.StatusOK, materializeResponse{Status: "already_requested"})
	case download.OutcomeAlreadyMaterialized:
		return ec.JSON(http.StatusOK, materializeResponse{Status: "already_materialized"})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "Unexpected materialization outcome")
}

// stream redirects the caller to a short-lived remote audio URL, resolved
// fresh for every playback session. Nothing is fetched or persisted.
func (controller *Controller) stream(ec echo.Context) error {
	audiobook, err := controller.fetchAudiobook(ec)
	if err != nil {
		return err
	}

	streamURL, err := controller.streamResolver.ResolveStreamURL(ec.Request().Context(), audiobook.MediaURL)
	if err != nil {
		var noAudio *youtube.NoAudioStreamError
		if errors.As(err, &noAudio) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "No playable audio stream available for this audiobook")
		}

		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Failed to resolve stream: %s", err))
	}

	return ec.Redirect(http.StatusFound, streamURL)
}

// streamInfo reports the audio renditions the remote offers for this
// audiobook, for diagnosing playback issues.
func (controller *Controller) streamInfo(ec echo.Context) error {
	audiobook, err := controller.fetchAudiobook(ec)
	if err != nil {
		return err
	}

	info, err := controller.streamResolver.StreamInfo(ec.Request().Context(), audiobook.MediaURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Failed to inspect stream: %s", err))
	}

	return ec.JSON(http.StatusOK, info)
}

// generateSummary synchronously produces and saves a summary for this
// audiobook. Audiobooks with no remote description cannot be summarized.
func (controller *Controller) generateSummary(ec echo.Context) error {
	if !controller.summarizer.Enabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Summary generation is not configured")
	}

	audiobook, err := controller.fetchAudiobook(ec)
	if err != nil {
		return err
	}

	description := util.NotNilOrDefault(audiobook.Description, "")
	summary, err := controller.summarizer.Summarize(ec.Request().Context(), audiobook.Title, description)
	if err != nil {
		if errors.Is(err, openai.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Summary generation is not configured")
		}

		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Summary generation failed: %s", err))
	} else if summary == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Audiobook has no description to summarize")
	}

	if err := controller.store.SetAudiobookSummary(audiobook.ID, summary); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to save summary: %s", err))
	}

	return ec.JSON(http.StatusOK, summaryResponse{Summary: summary})
}

func (controller *Controller) fetchAudiobook(ec echo.Context) (*catalog.Audiobook, error) {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Audiobook ID is not a valid UUID")
	}

	audiobook, err := controller.store.GetAudiobook(id)
	if err != nil {
		if errors.Is(err, catalog.ErrAudiobookNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Audiobook not found")
		}

		return nil, echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return audiobook, nil
}
