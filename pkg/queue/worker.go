package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler processes one claimed job. Returning an error schedules a
// retry (or moves the job to its DLQ once attempts are exhausted);
// returning nil marks the job COMPLETED.
type Handler func(ctx context.Context, job *Job) error

// WorkerStatus is a worker's current activity.
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "idle"
	WorkerWorking WorkerStatus = "working"
)

// WorkerHealth is one worker's point-in-time status.
type WorkerHealth struct {
	ID           string
	Status       WorkerStatus
	JobsHandled  int
	LastActivity time.Time
}

// worker polls a single named queue and invokes its handler
// single-threaded per job.
type worker struct {
	id          string
	queue       string
	store       *Store
	handler     Handler
	pollInt     time.Duration
	backoffBase time.Duration
	softDeadln  time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	mu           sync.RWMutex
	status       WorkerStatus
	jobsHandled  int
	lastActivity time.Time
}

func newWorker(id, queueName string, store *Store, handler Handler, pollInt, backoffBase, softDeadline time.Duration) *worker {
	return &worker{
		id:          id,
		queue:       queueName,
		store:       store,
		handler:     handler,
		pollInt:     pollInt,
		backoffBase: backoffBase,
		softDeadln:  softDeadline,
		stopCh:      make(chan struct{}),
		status:      WorkerIdle,
		lastActivity: time.Now(),
	}
}

func (w *worker) start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *worker) stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id, "queue", w.queue)
	log.Info("queue worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("queue worker shutting down")
			return
		case <-ctx.Done():
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrEmpty) {
					w.sleep(w.pollInt)
					continue
				}
				log.Error("error claiming job", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *worker) pollAndProcess(ctx context.Context) error {
	job, err := w.store.Claim(ctx, w.queue, w.id)
	if err != nil {
		return err
	}

	log := slog.With("job_id", job.ID, "queue", w.queue, "worker_id", w.id)
	w.setStatus(WorkerWorking)
	defer w.setStatus(WorkerIdle)

	// Soft deadline: a job that outlives the queue's visibility timeout
	// is cancelled and goes through the normal retry policy.
	jobCtx := ctx
	if w.softDeadln > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.softDeadln)
		defer cancel()
	}

	var handlerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				handlerErr = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		handlerErr = w.handler(jobCtx, job)
	}()

	if handlerErr != nil {
		log.Warn("job failed", "error", handlerErr, "attempt", job.Attempts+1)
		if err := w.store.Fail(ctx, job, handlerErr, w.backoffBase); err != nil {
			log.Error("failed to record job failure", "error", err)
			return err
		}
		return nil
	}

	if err := w.store.Complete(ctx, job.ID); err != nil {
		log.Error("failed to mark job complete", "error", err)
		return err
	}

	w.mu.Lock()
	w.jobsHandled++
	w.mu.Unlock()
	log.Info("job completed")
	return nil
}

func (w *worker) setStatus(s WorkerStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = s
	w.lastActivity = time.Now()
}

func (w *worker) health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{ID: w.id, Status: w.status, JobsHandled: w.jobsHandled, LastActivity: w.lastActivity}
}
