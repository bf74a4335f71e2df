// Package scheduler fans a job out across its provider tasks.
//
// Launch is fire-and-forget: the caller gets its job handle back
// immediately and each task runs on its own goroutine, racing its own
// deadline. Task outcomes land in the job store independently; a slow or
// failing provider never holds up its siblings.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pixelfan/pixelfan/ai"
	"github.com/pixelfan/pixelfan/job"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/registry"
	"github.com/pixelfan/pixelfan/storage"
)

// DefaultTaskTimeout bounds a single provider call. Providers that have
// not produced an image by then are recorded as timed out.
const DefaultTaskTimeout = 55 * time.Second

// Executor runs generation tasks against the dispatch table and records
// their outcomes in the job store.
type Executor struct {
	store       *job.Store
	images      *storage.ImageStore
	table       *ai.Table
	taskTimeout time.Duration

	wg sync.WaitGroup
}

// NewExecutor creates an executor. taskTimeout <= 0 selects the default.
func NewExecutor(store *job.Store, images *storage.ImageStore, table *ai.Table, taskTimeout time.Duration) *Executor {
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	return &Executor{
		store:       store,
		images:      images,
		table:       table,
		taskTimeout: taskTimeout,
	}
}

// Launch starts one goroutine per task and returns without waiting.
// Task i runs against providers[i]; the stored job document carries no
// secrets, so the live entries come in alongside it. The job's progress
// is observable only through the store.
func (e *Executor) Launch(j *job.Job, providers []registry.ProviderEntry) {
	logger.Infow("Launching job",
		logger.FieldJobID, j.ID,
		logger.FieldTotal, len(j.Tasks))

	for i := range j.Tasks {
		e.wg.Add(1)
		go func(taskIndex int, entry registry.ProviderEntry) {
			defer e.wg.Done()
			e.runTask(j, taskIndex, entry)
		}(i, providers[i])
	}
}

func (e *Executor) runTask(j *job.Job, taskIndex int, entry registry.ProviderEntry) {
	if err := e.store.MarkTaskRunning(j.ID, taskIndex); err != nil {
		logger.Errorw("Failed to mark task running",
			logger.FieldJobID, j.ID,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldError, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.taskTimeout)
	defer cancel()

	start := time.Now()
	image, err := e.table.Dispatch(ctx, entry, j.Prompt, j.Params)
	elapsed := time.Since(start)

	if err != nil {
		msg := err.Error()
		if ctx.Err() == context.DeadlineExceeded {
			msg = "provider timed out after " + e.taskTimeout.String()
		}
		logger.Warnw("Task failed",
			logger.FieldJobID, j.ID,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldProvider, entry.DisplayName,
			logger.FieldDurationMS, elapsed.Milliseconds(),
			logger.FieldError, err)
		e.recordError(j.ID, taskIndex, msg, elapsed)
		return
	}

	key, err := e.images.SaveImage(image, entry.DisplayName, j.Prompt, j.Params, j.ID)
	if err != nil {
		logger.Errorw("Failed to save generated image",
			logger.FieldJobID, j.ID,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldError, err)
		e.recordError(j.ID, taskIndex, "failed to store generated image", elapsed)
		return
	}

	if err := e.store.MarkTaskResult(j.ID, taskIndex, key, elapsed); err != nil {
		logger.Errorw("Failed to record task result",
			logger.FieldJobID, j.ID,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldError, err)
		return
	}

	logger.Infow("Task completed",
		logger.FieldJobID, j.ID,
		logger.FieldTaskIdx, taskIndex,
		logger.FieldProvider, entry.DisplayName,
		logger.FieldDurationMS, elapsed.Milliseconds())
}

func (e *Executor) recordError(jobID string, taskIndex int, msg string, elapsed time.Duration) {
	if err := e.store.MarkTaskError(jobID, taskIndex, msg, elapsed); err != nil {
		logger.Errorw("Failed to record task error",
			logger.FieldJobID, jobID,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldError, err)
	}
}

// Wait blocks until every launched task has finished. Intended for tests
// and graceful shutdown.
func (e *Executor) Wait() {
	e.wg.Wait()
}
