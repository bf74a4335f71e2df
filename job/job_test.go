package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfan/pixelfan/registry"
)

func testProviders(n int) []registry.ProviderEntry {
	providers := make([]registry.ProviderEntry, n)
	for i := range providers {
		providers[i] = registry.ProviderEntry{
			SlotIndex:   i + 1,
			DisplayName: "Provider " + string(rune('A'+i)),
			Secret:      "sk-test",
			Kind:        registry.KindGeneric,
		}
	}
	return providers
}

func TestNewJob(t *testing.T) {
	j := New("a sunset", map[string]float64{"steps": 25}, testProviders(3))

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, 3, j.TotalTasks)
	assert.Equal(t, 0, j.CompletedTasks)
	require.Len(t, j.Tasks, 3)
	assert.Equal(t, TaskPending, j.Tasks[0].Status)
	assert.Equal(t, 1, j.Tasks[0].SlotIndex)
	assert.Equal(t, "Provider A", j.Tasks[0].Provider)
}

func TestJobIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		j := New("p", nil, testProviders(1))
		assert.False(t, seen[j.ID])
		seen[j.ID] = true
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		states []TaskStatus
		want   Status
	}{
		{"no tasks", nil, StatusPending},
		{"all pending", []TaskStatus{TaskPending, TaskPending}, StatusPending},
		{"one running", []TaskStatus{TaskInProgress, TaskPending}, StatusInProgress},
		{"some terminal some not", []TaskStatus{TaskCompleted, TaskPending}, StatusInProgress},
		{"error and running", []TaskStatus{TaskError, TaskInProgress}, StatusInProgress},
		{"all completed", []TaskStatus{TaskCompleted, TaskCompleted}, StatusCompleted},
		{"single completed", []TaskStatus{TaskCompleted}, StatusCompleted},
		{"mixed terminal", []TaskStatus{TaskCompleted, TaskError}, StatusPartial},
		{"all error", []TaskStatus{TaskError, TaskError}, StatusPartial},
		{"single error", []TaskStatus{TaskError}, StatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := make([]Task, len(tt.states))
			for i, s := range tt.states {
				tasks[i] = Task{Status: s}
			}
			assert.Equal(t, tt.want, DeriveStatus(tasks))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusPartial.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())

	assert.True(t, TaskCompleted.Terminal())
	assert.True(t, TaskError.Terminal())
	assert.False(t, TaskPending.Terminal())
	assert.False(t, TaskInProgress.Terminal())
}
