// Package job defines the generation job model and its blob-backed store.
//
// A Job fans out into one Task per configured provider. The task list is
// fixed at creation: tasks are never added or removed afterwards, and each
// task is mutated only by the single scheduler goroutine that owns it.
// Job-level status is always a pure function of the task states.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfan/pixelfan/registry"
)

// Status is the job-level lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further job-level transition can occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	default:
		return false
	}
}

// TaskStatus is the per-provider task state.
// A task only ever moves forward: pending → in_progress → completed|error.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// Terminal reports whether the task has reached a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskError
}

// Task is one provider's unit of work within a job.
type Task struct {
	SlotIndex   int        `json:"slotIndex"`
	Provider    string     `json:"provider"` // display name, denormalized for status reads
	Status      TaskStatus `json:"status"`
	ResultKey   string     `json:"resultRef,omitempty"` // present only when completed
	Error       string     `json:"error,omitempty"`     // present only when status is error
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DurationMS  int64      `json:"durationMs,omitempty"`
}

// Job is one user-submitted generation request.
type Job struct {
	ID             string             `json:"jobId"`
	Status         Status             `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	TotalTasks     int                `json:"totalTasks"`
	CompletedTasks int                `json:"completedTasks"`
	Prompt         string             `json:"prompt"`
	Params         map[string]float64 `json:"parameters,omitempty"`
	Tasks          []Task             `json:"tasks"`

	// StartFailed marks a job that never reached the scheduler; it forces
	// the failed status regardless of task states. Only settable before
	// any task has started.
	StartFailed bool `json:"startFailed,omitempty"`
}

// New creates a pending job with one pending task per provider.
// The job id is a random UUID, collision-resistant across deployments.
func New(prompt string, params map[string]float64, providers []registry.ProviderEntry) *Job {
	now := time.Now().UTC()
	tasks := make([]Task, len(providers))
	for i, p := range providers {
		tasks[i] = Task{
			SlotIndex: p.SlotIndex,
			Provider:  p.DisplayName,
			Status:    TaskPending,
		}
	}

	j := &Job{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Prompt:    prompt,
		Params:    params,
		Tasks:     tasks,
	}
	j.refresh(now)
	return j
}

// DeriveStatus computes job-level status from the task states alone.
//
//	all pending                      → pending
//	any started, not all terminal    → in_progress
//	all terminal, all completed      → completed
//	all terminal, at least one error → partial
func DeriveStatus(tasks []Task) Status {
	if len(tasks) == 0 {
		return StatusPending
	}

	allPending := true
	allTerminal := true
	anyError := false
	for _, t := range tasks {
		if t.Status != TaskPending {
			allPending = false
		}
		if !t.Status.Terminal() {
			allTerminal = false
		}
		if t.Status == TaskError {
			anyError = true
		}
	}

	switch {
	case allPending:
		return StatusPending
	case !allTerminal:
		return StatusInProgress
	case anyError:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// refresh recomputes the derived fields after a task mutation.
func (j *Job) refresh(now time.Time) {
	if j.StartFailed {
		j.Status = StatusFailed
	} else {
		j.Status = DeriveStatus(j.Tasks)
	}
	j.TotalTasks = len(j.Tasks)

	completed := 0
	for _, t := range j.Tasks {
		if t.Status == TaskCompleted {
			completed++
		}
	}
	j.CompletedTasks = completed
	j.UpdatedAt = now
}
