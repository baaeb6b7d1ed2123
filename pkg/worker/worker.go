package worker

import (
	"github.com/tomelib/tome/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type (
	WorkerWakeupChan chan int
	WorkerStatus     int

	// WorkerTask is the unit of work executed by a worker whenever it is
	// awake. The boolean return indicates whether the task actually found
	// work to do; a worker will keep executing its task until it reports
	// no work remaining, at which point the worker sleeps until woken.
	WorkerTask func(Worker) (bool, error)

	Worker interface {
		Start()
		Status() WorkerStatus
		WakeupChan() WorkerWakeupChan
		Label() string
		Sleep() bool
		Close()
	}

	taskWorker struct {
		label         string
		task          WorkerTask
		wakeupChan    WorkerWakeupChan
		currentStatus WorkerStatus
	}
)

const (
	SLEEPING WorkerStatus = iota
	WORKING
	FINISHED
)

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{
		label:         label,
		task:          task,
		wakeupChan:    make(WorkerWakeupChan),
		currentStatus: SLEEPING,
	}
}

// Start enters the workers main loop: drain all available work, then
// sleep until woken. The loop exits when the wakeup channel is closed.
func (worker *taskWorker) Start() {
	workerLogger.Debugf("Worker %s starting\n", worker.label)
	worker.currentStatus = WORKING

	for {
		for {
			didWork, err := worker.task(worker)
			if err != nil {
				workerLogger.Errorf("Worker %s task reported error (%T): %v\n", worker.label, err, err)
				break
			}

			if !didWork {
				break
			}
		}

		if !worker.Sleep() {
			return
		}
	}
}

func (worker *taskWorker) Status() WorkerStatus { return worker.currentStatus }

func (worker *taskWorker) WakeupChan() WorkerWakeupChan { return worker.wakeupChan }

func (worker *taskWorker) Label() string { return worker.label }

// Close closes the workers wakeup channel, which will cause the worker to
// exit once it finishes any in-flight task.
func (worker *taskWorker) Close() {
	close(worker.wakeupChan)
}

// Sleep blocks until the worker is woken via its wakeup channel. Returns
// false if the channel was closed, indicating the worker should quit.
func (worker *taskWorker) Sleep() (isAlive bool) {
	worker.currentStatus = SLEEPING

	if _, isAlive = <-worker.wakeupChan; isAlive {
		worker.currentStatus = WORKING
	} else {
		workerLogger.Debugf("Wakeup channel for worker '%v' has been closed - worker is exiting\n", worker.label)
		worker.currentStatus = FINISHED
	}

	return isAlive
}
