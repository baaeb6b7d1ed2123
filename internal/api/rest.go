package api

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tomelib/tome/internal/api/audiobooks"
	"github.com/tomelib/tome/internal/api/channels"
	"github.com/tomelib/tome/internal/api/discussions"
	"github.com/tomelib/tome/internal/api/notes"
	"github.com/tomelib/tome/internal/api/playlists"
	"github.com/tomelib/tome/internal/download"
	"github.com/tomelib/tome/internal/event"
	"github.com/tomelib/tome/internal/http/websocket"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// dataStore represents a union of all the controller store requirements
	dataStore interface {
		channels.Store
		playlists.Store
		audiobooks.Store
		notes.Store
		discussions.Store
	}

	libraryService interface {
		channels.LibraryService
		playlists.LibraryService
	}

	aiService interface {
		audiobooks.Summarizer
		discussions.DiscussService
	}

	downloadService interface {
		audiobooks.DownloadService
		AllTasks() []*download.MaterializationTask
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. Its sole
	// responsibility is to create the routes Tome exposes, serve the
	// materialized audio library, and manage ongoing web socket connections
	// and the activity events flowing through them.
	RestGateway struct {
		*broadcaster
		config               *RestConfig
		ec                   *echo.Echo
		socket               *websocket.SocketHub
		channelController    controller
		playlistController   controller
		audiobookController  controller
		noteController       controller
		discussionController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers. Each controller requires
// access to a data store and the services backing its operations, which are
// provided as arguments.
func NewRestGateway(
	config *RestConfig,
	eventBus event.EventCoordinator,
	library libraryService,
	downloads downloadService,
	streamResolver audiobooks.StreamResolver,
	ai aiService,
	storageRootPath string,
	store dataStore,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()

	socket := websocket.New()

	// A freshly connected client has missed every broadcast, so the welcome
	// message carries a snapshot of the in-flight materializations.
	socket.WithConnectionCallback(func() map[string]interface{} {
		tasks := downloads.AllTasks()
		snapshots := make([]map[string]interface{}, 0, len(tasks))
		for _, task := range tasks {
			snapshots = append(snapshots, map[string]interface{}{
				"audiobook_id": task.Audiobook().ID,
				"status":       task.Status().String(),
				"progress":     task.Progress(),
			})
		}

		return map[string]interface{}{"materializations": snapshots}
	})

	gateway := &RestGateway{
		broadcaster:          newBroadcaster(socket, store),
		config:               config,
		ec:                   ec,
		socket:               socket,
		channelController:    channels.New(validate, library, store),
		playlistController:   playlists.New(validate, library, store),
		audiobookController:  audiobooks.New(downloads, streamResolver, ai, storageRootPath, store),
		noteController:       notes.New(validate, store),
		discussionController: discussions.New(validate, ai, store),
	}

	gateway.broadcaster.registerWith(eventBus)

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())

	// Static file paths must keep their extension intact, so the slash
	// normalization only applies to API routes.
	ec.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(ec echo.Context) bool {
			return !strings.HasPrefix(ec.Request().URL.Path, "/api/")
		},
	}))

	ec.GET("/api/tome/v1/activity/ws/", func(ec echo.Context) error {
		gateway.socket.UpgradeToSocket(ec.Response(), ec.Request())
		return nil
	})

	// Materialized audio is served directly off the storage root; catalog
	// rows hold paths relative to this mount.
	ec.Static("/audio", filepath.Join(storageRootPath, "audio"))

	channelGroup := ec.Group("/api/tome/v1/channels")
	gateway.channelController.SetRoutes(channelGroup)

	playlistGroup := ec.Group("/api/tome/v1/playlists")
	gateway.playlistController.SetRoutes(playlistGroup)

	audiobookGroup := ec.Group("/api/tome/v1/audiobooks")
	gateway.audiobookController.SetRoutes(audiobookGroup)

	noteGroup := ec.Group("/api/tome/v1/notes")
	gateway.noteController.SetRoutes(noteGroup)

	discussionGroup := ec.Group("/api/tome/v1/discussions")
	gateway.discussionController.SetRoutes(discussionGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	// Start websocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.socket.Start(ctx)
	}()

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
