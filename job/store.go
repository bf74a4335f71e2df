package job

import (
	"encoding/json"
	"time"

	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/registry"
	"github.com/pixelfan/pixelfan/storage"
)

const jobKeyPrefix = "jobs/"

// Store persists jobs as whole JSON documents in the blob store.
//
// Every mutation is a full read of the current document, an in-memory
// change to one task slot, and a full write-back. There is no field-level
// update and no locking: concurrent writers for different tasks of the
// same job race benignly, and a tight interleaving can lose another
// task's update. That is the documented consistency ceiling.
type Store struct {
	kv      storage.KV
	timeNow func() time.Time
}

// NewStore creates a job store over the given blob store.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, timeNow: time.Now}
}

// Create builds a pending job with one task per provider and persists it.
func (s *Store) Create(prompt string, params map[string]float64, providers []registry.ProviderEntry) (*Job, error) {
	j := New(prompt, params, providers)
	if err := s.write(j); err != nil {
		return nil, errors.Wrap(err, "failed to create job")
	}

	logger.Infow("Created job",
		logger.FieldJobID, j.ID,
		logger.FieldTotal, j.TotalTasks)
	return j, nil
}

// Get loads a job by id. Missing jobs surface storage.ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	data, err := s.kv.Get(jobKeyPrefix + id)
	if err != nil {
		return nil, err
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal job %s", id)
	}
	return &j, nil
}

// MarkTaskRunning transitions one task to in_progress.
func (s *Store) MarkTaskRunning(id string, taskIndex int) error {
	return s.mutateTask(id, taskIndex, func(t *Task, now time.Time) {
		t.Status = TaskInProgress
		t.StartedAt = &now
	})
}

// MarkTaskResult transitions one task to completed with its stored result.
func (s *Store) MarkTaskResult(id string, taskIndex int, resultKey string, duration time.Duration) error {
	return s.mutateTask(id, taskIndex, func(t *Task, now time.Time) {
		t.Status = TaskCompleted
		t.ResultKey = resultKey
		t.CompletedAt = &now
		t.DurationMS = duration.Milliseconds()
	})
}

// MarkTaskError transitions one task to error with a human-readable message.
func (s *Store) MarkTaskError(id string, taskIndex int, message string, duration time.Duration) error {
	return s.mutateTask(id, taskIndex, func(t *Task, now time.Time) {
		t.Status = TaskError
		t.Error = message
		t.CompletedAt = &now
		t.DurationMS = duration.Milliseconds()
	})
}

// MarkStartFailed records that the job never reached the scheduler.
// Only meaningful before any task has started; afterwards it is refused.
func (s *Store) MarkStartFailed(id string) error {
	j, err := s.Get(id)
	if err != nil {
		return err
	}
	if DeriveStatus(j.Tasks) != StatusPending {
		return errors.Newf("job %s already started; cannot mark start-failed", id)
	}
	j.StartFailed = true
	j.refresh(s.timeNow().UTC())
	return s.write(j)
}

// mutateTask performs the read-modify-write cycle for a single task slot.
// A mutation against a task already in a terminal state is dropped: task
// state only moves forward.
func (s *Store) mutateTask(id string, taskIndex int, mutate func(*Task, time.Time)) error {
	j, err := s.Get(id)
	if err != nil {
		return err
	}

	if taskIndex < 0 || taskIndex >= len(j.Tasks) {
		return errors.Newf("task index %d out of range for job %s (%d tasks)", taskIndex, id, len(j.Tasks))
	}

	task := &j.Tasks[taskIndex]
	if task.Status.Terminal() {
		logger.Warnw("Dropping mutation against terminal task",
			logger.FieldJobID, id,
			logger.FieldTaskIdx, taskIndex,
			logger.FieldStatus, string(task.Status))
		return nil
	}

	now := s.timeNow().UTC()
	mutate(task, now)
	j.refresh(now)
	return s.write(j)
}

func (s *Store) write(j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal job %s", j.ID)
	}
	if err := s.kv.Put(jobKeyPrefix+j.ID, data); err != nil {
		return errors.Wrapf(err, "failed to write job %s", j.ID)
	}
	return nil
}
