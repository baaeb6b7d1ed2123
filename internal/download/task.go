package download

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
)

type (
	TaskStatus int

	// MaterializationTask tracks one in-flight materialization. Tasks are
	// keyed by the audiobook they materialize; the service never holds two
	// live tasks for the same audiobook. The mutable lifecycle fields are
	// guarded by the task's own mutex so they can be read while a worker
	// is mutating them.
	MaterializationTask struct {
		id        uuid.UUID
		audiobook *catalog.Audiobook

		mutex     sync.Mutex
		status    TaskStatus
		progress  float64
		lastError error
	}
)

const (
	PENDING TaskStatus = iota
	FETCHING
	ENCODING
	COMPLETE
	FAILED
)

func newTask(audiobook *catalog.Audiobook) *MaterializationTask {
	return &MaterializationTask{
		id:        uuid.New(),
		audiobook: audiobook,
		status:    PENDING,
	}
}

func (task *MaterializationTask) ID() uuid.UUID                 { return task.id }
func (task *MaterializationTask) Audiobook() *catalog.Audiobook { return task.audiobook }

func (task *MaterializationTask) Status() TaskStatus {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	return task.status
}

func (task *MaterializationTask) Progress() float64 {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	return task.progress
}

func (task *MaterializationTask) LastError() error {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	return task.lastError
}

// updateProgress raises the task progress to the given percentage. Progress
// is monotonic; stale or out-of-order updates from the underlying commands
// are discarded.
func (task *MaterializationTask) updateProgress(percent float64) bool {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	if percent <= task.progress {
		return false
	}

	task.progress = percent
	return true
}

func (task *MaterializationTask) setStatus(status TaskStatus) {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	task.status = status
}

func (task *MaterializationTask) fail(err error) {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	task.status = FAILED
	task.lastError = err
}

// claimPending atomically moves a pending task to FETCHING, reporting
// whether this caller won the claim.
func (task *MaterializationTask) claimPending() bool {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	if task.status != PENDING {
		return false
	}

	task.status = FETCHING
	return true
}

// isLive reports whether the task is still due work (neither complete nor
// failed).
func (task *MaterializationTask) isLive() bool {
	task.mutex.Lock()
	defer task.mutex.Unlock()

	return task.status != COMPLETE && task.status != FAILED
}

func (task *MaterializationTask) String() string {
	return fmt.Sprintf("MaterializationTask{id=%s audiobook=%s status=%s}", task.id, task.audiobook.ID, task.Status())
}

func (status TaskStatus) String() string {
	switch status {
	case PENDING:
		return "PENDING"
	case FETCHING:
		return "FETCHING"
	case ENCODING:
		return "ENCODING"
	case COMPLETE:
		return "COMPLETE"
	case FAILED:
		return "FAILED"
	}

	return "UNKNOWN"
}

// sanitizeTitle strips a remote title down to the characters which are safe
// in a filename on any host filesystem, collapsing runs of whitespace.
func sanitizeTitle(title string) string {
	var builder strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			builder.WriteRune(r)
		}
	}

	sanitized := strings.Join(strings.Fields(builder.String()), " ")
	if sanitized == "" {
		return "untitled"
	}

	return sanitized
}
