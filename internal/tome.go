package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/api"
	"github.com/tomelib/tome/internal/database"
	"github.com/tomelib/tome/internal/download"
	"github.com/tomelib/tome/internal/event"
	"github.com/tomelib/tome/internal/ffmpeg"
	"github.com/tomelib/tome/internal/library"
	"github.com/tomelib/tome/internal/openai"
	"github.com/tomelib/tome/internal/summaries"
	"github.com/tomelib/tome/internal/youtube"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	DownloadService interface {
		RunnableService
		Request(uuid.UUID) (download.RequestOutcome, error)
		AllTasks() []*download.MaterializationTask
	}
)

// tome represents the top-level object for the server, and is responsible
// for initialising the database, the stores, event handling and the
// services which depend on them.
type tome struct {
	eventBus event.EventCoordinator
	config   TomeConfig

	db           database.Manager
	orchestrator *dataOrchestrator

	youtubeClient *youtube.Client
	openaiClient  *openai.Client

	restGateway     RunnableService
	downloadService DownloadService
}

func New(config TomeConfig) *tome {
	log.Emit(logger.DEBUG, "Bootstrapping Tome services using config: %#v\n", config)

	db := database.New()
	orchestrator := NewDataOrchestrator(db)
	eventBus := event.New()

	youtubeClient := youtube.New(config.YouTube)
	encoder := ffmpeg.New(config.Ffmpeg)
	openaiClient := openai.New(config.OpenAI)

	downloadService, err := download.New(config.Download, eventBus, orchestrator, youtubeClient, encoder, openaiClient)
	if err != nil {
		panic(fmt.Sprintf("failed to construct download service due to error: %s", err.Error()))
	}

	libraryService := library.New(youtubeClient, orchestrator)
	restGateway := api.NewRestGateway(
		&config.Rest,
		eventBus,
		libraryService,
		downloadService,
		youtubeClient,
		openaiClient,
		config.Download.StorageRootPath,
		orchestrator,
	)

	return &tome{
		eventBus:        eventBus,
		config:          config,
		db:              db,
		orchestrator:    orchestrator,
		youtubeClient:   youtubeClient,
		openaiClient:    openaiClient,
		restGateway:     restGateway,
		downloadService: downloadService,
	}
}

// Run starts Tome by connecting to the database, running any pending
// migrations, and then spawning the long-running services.
//
// This function will not return until Tome is stopped. To stop Tome, the
// provided context must be cancelled. Errors from which Tome cannot
// recover will also cause Tome to stop.
func (tome *tome) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	if err := tome.db.Connect(tome.config.Database); err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	tome.spawnAsyncService(ctx, wg, tome.downloadService, "download-service", crashHandler)
	tome.spawnAsyncService(ctx, wg, tome.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Tome services spawned!\n")

	wg.Wait()
	return nil
}

// RunSummaryBackfill connects to the database and generates summaries
// for every audiobook which is missing one, then returns. It is the
// entry point for the one-shot backfill mode and does not start any of
// the long-running services.
func (tome *tome) RunSummaryBackfill(ctx context.Context) error {
	if !tome.openaiClient.Enabled() {
		return openai.ErrNotConfigured
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	if err := tome.db.Connect(tome.config.Database); err != nil {
		return err
	}

	runner := summaries.NewRunner(tome.orchestrator, tome.openaiClient, tome.config.Summaries.InterCallDelay())
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	log.Emit(logger.SUCCESS, "Summary backfill complete: %d succeeded, %d skipped, %d failed (of %d missing)\n",
		result.Succeeded, result.Skipped, result.Failed, result.Total)
	return nil
}

// spawnAsyncService will run the provided function/service as its own
// go-routine, ensuring that the Tome service waitgroup is updated correctly
func (tome *tome) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
