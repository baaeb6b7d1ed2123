package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/floostack/transcoder"
	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/event"
	"github.com/tomelib/tome/internal/ffmpeg"
	"github.com/tomelib/tome/pkg/logger"
	"github.com/tomelib/tome/pkg/worker"
)

var log = logger.Get("DownloadServ")

// RequestOutcome reports what happened to a materialization request; only
// OutcomeAccepted means new work was scheduled.
type RequestOutcome int

const (
	OutcomeAccepted RequestOutcome = iota
	OutcomeAlreadyRequested
	OutcomeAlreadyMaterialized
)

// Progress split between the fetch and encode stages. A freshly accepted
// request sits at the claim marker until a worker picks it up; completion
// is the only transition allowed to reach 100.
const (
	claimedPercent      = 1.0
	fetchBudgetPercent  = 79.0
	encodeBudgetPercent = 19.0
	completedPercent    = 100.0
)

type (
	// DataStore is the catalog surface the download service needs: reading
	// the item being materialized and persisting its lifecycle writes.
	DataStore interface {
		GetAudiobook(id uuid.UUID) (*catalog.Audiobook, error)
		RecordMaterializationRequested(id uuid.UUID) (bool, error)
		RecordMaterializationProgress(id uuid.UUID, percent float64) error
		RecordMaterialized(id uuid.UUID, localPath string, durationSeconds float64, fileSizeBytes int64) error
		RecordMaterializationFailure(id uuid.UUID) error
		SetAudiobookSummary(id uuid.UUID, summary string) error
	}

	// Fetcher pulls remote media down to the local disk.
	Fetcher interface {
		DownloadMedia(ctx context.Context, mediaURL string, outputBase string, onProgress func(float64)) (string, error)
	}

	// Encoder turns fetched media into the library's canonical audio format.
	Encoder interface {
		TranscodeToAudio(ctx context.Context, inputPath string, outputPath string, format string, bitrate string, progressCallback ffmpeg.ProgressCallback) error
		ProbeDuration(path string) (float64, error)
	}

	// Summarizer produces the optional post-materialization summary. Its
	// failures never fail a materialization.
	Summarizer interface {
		Summarize(ctx context.Context, title string, description string) (string, error)
	}

	// downloadService runs the materialization pipeline for catalog items:
	//   - Accepting requests and enforcing per-item exclusivity
	//   - Fetching remote media and encoding it to the library format
	//   - Persisting lifecycle state transitions to the catalog
	//   - Live-tracking of ongoing materializations over the event bus
	downloadService struct {
		*sync.Mutex
		taskWg     *sync.WaitGroup
		config     *Config
		tasks      []*MaterializationTask
		workerPool *worker.WorkerPool

		eventBus   event.EventCoordinator
		dataStore  DataStore
		fetcher    Fetcher
		encoder    Encoder
		summarizer Summarizer
	}
)

// New creates a new downloadService, injecting all required collaborators.
// An error is returned if the configured storage root cannot be created.
func New(config Config, eventBus event.EventCoordinator, dataStore DataStore, fetcher Fetcher, encoder Encoder, summarizer Summarizer) (*downloadService, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}

	if err := os.MkdirAll(filepath.Join(config.StorageRootPath, "audio"), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", config.StorageRootPath, err)
	}

	return &downloadService{
		Mutex:      &sync.Mutex{},
		taskWg:     &sync.WaitGroup{},
		config:     &config,
		tasks:      make([]*MaterializationTask, 0),
		workerPool: worker.NewWorkerPool(),
		eventBus:   eventBus,
		dataStore:  dataStore,
		fetcher:    fetcher,
		encoder:    encoder,
		summarizer: summarizer,
	}, nil
}

// Run is the main entry point for this service. This method will block
// until the provided context is cancelled.
// Note: when the context is cancelled this method will not immediately
// return as it waits for its running materializations to wind down.
func (service *downloadService) Run(ctx context.Context) error {
	for i := 0; i < service.config.Concurrency; i++ {
		label := fmt.Sprintf("materializer:%d", i)
		service.workerPool.PushWorker(worker.NewWorker(label, func(w worker.Worker) (bool, error) {
			return service.runNextTask(ctx)
		}))
	}

	if err := service.workerPool.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Infof("Shutting down (context cancelled). Waiting for materialization tasks to finish.\n")
	service.taskWg.Wait()
	service.workerPool.Close()

	return nil
}

// Request schedules a materialization of the audiobook with the given ID.
// At most one live task may exist per audiobook; repeat requests while one
// is in flight, and requests for an already materialized audiobook, are
// acknowledged without scheduling new work.
func (service *downloadService) Request(audiobookID uuid.UUID) (RequestOutcome, error) {
	audiobook, err := service.dataStore.GetAudiobook(audiobookID)
	if err != nil {
		return 0, err
	}

	if audiobook.IsFetched {
		return OutcomeAlreadyMaterialized, nil
	}

	service.Lock()
	defer service.Unlock()

	if service.activeTaskForAudiobook(audiobookID) != nil {
		return OutcomeAlreadyRequested, nil
	}

	// Claim the item in the catalog before queueing; this is what makes
	// the request survive a restart and keeps concurrent processes honest.
	claimed, err := service.dataStore.RecordMaterializationRequested(audiobookID)
	if err != nil {
		return 0, err
	} else if !claimed {
		return OutcomeAlreadyRequested, nil
	}

	task := newTask(audiobook)
	task.updateProgress(claimedPercent)
	service.tasks = append(service.tasks, task)

	log.Infof("Materialization of audiobook %s ('%s') requested\n", audiobook.ID, audiobook.Title)
	service.eventBus.Dispatch(event.MATERIALIZATION_UPDATE, audiobook.ID)
	service.workerPool.WakeupWorkers()

	return OutcomeAccepted, nil
}

// AllTasks returns the slice of materialization task pointers.
func (service *downloadService) AllTasks() []*MaterializationTask {
	service.Lock()
	defer service.Unlock()

	return append(make([]*MaterializationTask, 0, len(service.tasks)), service.tasks...)
}

// TaskForAudiobook returns the live task for the given audiobook, if any.
func (service *downloadService) TaskForAudiobook(audiobookID uuid.UUID) *MaterializationTask {
	service.Lock()
	defer service.Unlock()

	return service.activeTaskForAudiobook(audiobookID)
}

// activeTaskForAudiobook must be called with the service mutex held.
func (service *downloadService) activeTaskForAudiobook(audiobookID uuid.UUID) *MaterializationTask {
	for _, t := range service.tasks {
		if t.audiobook.ID == audiobookID && t.isLive() {
			return t
		}
	}

	return nil
}

// runNextTask claims the oldest pending task and runs it to completion.
// The boolean return tells the worker pool whether there may be more work.
func (service *downloadService) runNextTask(ctx context.Context) (bool, error) {
	task := service.claimPendingTask()
	if task == nil {
		return false, nil
	}

	service.taskWg.Add(1)
	defer service.taskWg.Done()

	if err := service.runTask(ctx, task); err != nil {
		service.failTask(task, err)
	}

	return true, nil
}

func (service *downloadService) claimPendingTask() *MaterializationTask {
	service.Lock()
	defer service.Unlock()

	for _, t := range service.tasks {
		if t.claimPending() {
			return t
		}
	}

	return nil
}

// runTask drives one materialization end to end: fetch the remote media to
// a scratch file, encode it into the playlist directory, then persist the
// outcome in a single completion write.
func (service *downloadService) runTask(ctx context.Context, task *MaterializationTask) error {
	audiobook := task.audiobook
	log.Infof("Materializing audiobook %s ('%s')\n", audiobook.ID, audiobook.Title)

	playlistDir := filepath.Join(service.config.StorageRootPath, "audio", fmt.Sprintf("playlist_%s", audiobook.PlaylistID))
	if err := os.MkdirAll(playlistDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create playlist directory: %w", err)
	}

	scratchDir, err := os.MkdirTemp(service.config.StorageRootPath, "incoming-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	baseName := fmt.Sprintf("%s_%s", sanitizeTitle(audiobook.Title), audiobook.RemoteID)

	fetchedPath, err := service.fetcher.DownloadMedia(ctx, audiobook.MediaURL, filepath.Join(scratchDir, baseName), func(pct float64) {
		service.reportProgress(task, claimedPercent+(pct/100.0)*fetchBudgetPercent)
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	service.setTaskStatus(task, ENCODING)
	service.reportProgress(task, claimedPercent+fetchBudgetPercent)

	outputPath := filepath.Join(playlistDir, fmt.Sprintf("%s.%s", baseName, service.config.AudioFormat))
	err = service.encoder.TranscodeToAudio(ctx, fetchedPath, outputPath, service.config.AudioFormat, service.config.AudioBitrate, func(progress transcoder.Progress) {
		service.reportProgress(task, claimedPercent+fetchBudgetPercent+(progress.GetProgress()/100.0)*encodeBudgetPercent)
	})
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	duration, err := service.encoder.ProbeDuration(outputPath)
	if err != nil {
		log.Warnf("Probe of %s failed, falling back to remote-reported duration: %s\n", outputPath, err)
		if audiobook.DurationSeconds != nil {
			duration = *audiobook.DurationSeconds
		}
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("stat of encoded file failed: %w", err)
	}

	relativePath := fmt.Sprintf("/audio/playlist_%s/%s", audiobook.PlaylistID, filepath.Base(outputPath))
	if err := service.dataStore.RecordMaterialized(audiobook.ID, relativePath, duration, stat.Size()); err != nil {
		return fmt.Errorf("failed to record completed materialization: %w", err)
	}

	service.setTaskStatus(task, COMPLETE)
	task.updateProgress(completedPercent)
	log.Infof("Materialization of audiobook %s complete (%s)\n", audiobook.ID, relativePath)
	service.eventBus.Dispatch(event.MATERIALIZATION_COMPLETE, audiobook.ID)

	service.summarize(ctx, audiobook)
	service.removeFinishedTask(task.ID())

	return nil
}

// summarize attaches a generated summary to a freshly materialized
// audiobook. This is strictly best-effort.
func (service *downloadService) summarize(ctx context.Context, audiobook *catalog.Audiobook) {
	if service.summarizer == nil || audiobook.Summary != nil {
		return
	}

	description := ""
	if audiobook.Description != nil {
		description = *audiobook.Description
	}

	summary, err := service.summarizer.Summarize(ctx, audiobook.Title, description)
	if err != nil {
		log.Warnf("Summary generation for audiobook %s failed: %s\n", audiobook.ID, err)
		return
	} else if summary == "" {
		return
	}

	if err := service.dataStore.SetAudiobookSummary(audiobook.ID, summary); err != nil {
		log.Warnf("Failed to save summary for audiobook %s: %s\n", audiobook.ID, err)
		return
	}

	service.eventBus.Dispatch(event.SUMMARY_COMPLETE, audiobook.ID)
}

// failTask records a failed materialization: the catalog row is reset so
// the item can be re-requested from scratch.
func (service *downloadService) failTask(task *MaterializationTask, taskErr error) {
	log.Errorf("Materialization of audiobook %s failed: %s\n", task.audiobook.ID, taskErr)

	task.fail(taskErr)

	if err := service.dataStore.RecordMaterializationFailure(task.audiobook.ID); err != nil {
		log.Errorf("Failed to record materialization failure for audiobook %s: %s\n", task.audiobook.ID, err)
	}

	service.eventBus.Dispatch(event.MATERIALIZATION_UPDATE, task.audiobook.ID)
	service.removeFinishedTask(task.ID())
}

// reportProgress raises the in-memory and persisted progress of the task.
// Regressions are dropped here and again by the store, so observers can
// rely on a monotonic climb.
func (service *downloadService) reportProgress(task *MaterializationTask, percent float64) {
	if !task.updateProgress(percent) {
		return
	}

	// Progress only climbs, so a read after the raise is still monotonic
	// even if another update landed in between.
	if err := service.dataStore.RecordMaterializationProgress(task.audiobook.ID, task.Progress()); err != nil {
		log.Warnf("Failed to persist progress for audiobook %s: %s\n", task.audiobook.ID, err)
	}

	service.eventBus.Dispatch(event.MATERIALIZATION_PROGRESS, task.audiobook.ID)
}

func (service *downloadService) setTaskStatus(task *MaterializationTask, status TaskStatus) {
	task.setStatus(status)
	service.eventBus.Dispatch(event.MATERIALIZATION_UPDATE, task.audiobook.ID)
}

// removeFinishedTask drops a finished task from the table; live tasks are
// never removed.
func (service *downloadService) removeFinishedTask(id uuid.UUID) {
	service.Lock()
	defer service.Unlock()

	for i, t := range service.tasks {
		if t.ID() == id && !t.isLive() {
			service.tasks = append(service.tasks[:i], service.tasks[i+1:]...)
			return
		}
	}
}
