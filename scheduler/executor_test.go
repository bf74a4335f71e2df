package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfan/pixelfan/ai"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/job"
	"github.com/pixelfan/pixelfan/registry"
	"github.com/pixelfan/pixelfan/storage"
)

func testProviders(names ...string) []registry.ProviderEntry {
	entries := make([]registry.ProviderEntry, len(names))
	for i, name := range names {
		entries[i] = registry.ProviderEntry{
			SlotIndex:   i + 1,
			DisplayName: name,
			Secret:      "sk-" + name,
			Kind:        registry.KindGeneric,
		}
	}
	return entries
}

type fixture struct {
	store    *job.Store
	images   *storage.ImageStore
	executor *Executor
}

func newFixture(t *testing.T, generate ai.GenerateFunc, timeout time.Duration) *fixture {
	t.Helper()
	kv := storage.NewMemoryKV()
	store := job.NewStore(kv)
	images := storage.NewImageStore(kv, "")
	return &fixture{
		store:    store,
		images:   images,
		executor: NewExecutor(store, images, ai.NewTable(generate), timeout),
	}
}

func TestLaunchAllSucceed(t *testing.T) {
	generate := func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
		return "b64-" + entry.DisplayName, nil
	}
	fx := newFixture(t, generate, time.Second)

	providers := testProviders("alpha", "beta")
	j, err := fx.store.Create("a sunset", nil, providers)
	require.NoError(t, err)

	fx.executor.Launch(j, providers)
	fx.executor.Wait()

	got, err := fx.store.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.CompletedTasks)

	for _, task := range got.Tasks {
		assert.Equal(t, job.TaskCompleted, task.Status)
		require.NotEmpty(t, task.ResultKey)

		doc, err := fx.images.GetImage(task.ResultKey)
		require.NoError(t, err)
		assert.Equal(t, "b64-"+task.Provider, doc.Output)
		assert.Equal(t, "a sunset", doc.Prompt)
		assert.Equal(t, j.ID, doc.Target)
	}
}

func TestLaunchSlowProviderDoesNotBlockSiblings(t *testing.T) {
	generate := func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
		if entry.DisplayName == "slow" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "b64-" + entry.DisplayName, nil
	}
	fx := newFixture(t, generate, 50*time.Millisecond)

	providers := testProviders("alpha", "beta", "slow")
	j, err := fx.store.Create("a sunset", nil, providers)
	require.NoError(t, err)

	fx.executor.Launch(j, providers)
	fx.executor.Wait()

	got, err := fx.store.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPartial, got.Status)
	assert.Equal(t, 2, got.CompletedTasks)

	assert.Equal(t, job.TaskCompleted, got.Tasks[0].Status)
	assert.Equal(t, job.TaskCompleted, got.Tasks[1].Status)
	assert.Equal(t, job.TaskError, got.Tasks[2].Status)
	assert.Contains(t, got.Tasks[2].Error, "timed out")
}

// A job whose every task errors is still a normal partial completion,
// not a system failure.
func TestLaunchAllTasksError(t *testing.T) {
	generate := func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
		return "", errors.New("upstream rejected the request")
	}
	fx := newFixture(t, generate, time.Second)

	providers := testProviders("alpha", "beta")
	j, err := fx.store.Create("a sunset", nil, providers)
	require.NoError(t, err)

	fx.executor.Launch(j, providers)
	fx.executor.Wait()

	got, err := fx.store.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPartial, got.Status)
	assert.Equal(t, 0, got.CompletedTasks)
	for _, task := range got.Tasks {
		assert.Equal(t, job.TaskError, task.Status)
		assert.Contains(t, task.Error, "upstream rejected")
	}
}

func TestLaunchRecordsDurations(t *testing.T) {
	generate := func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "b64", nil
	}
	fx := newFixture(t, generate, time.Second)

	providers := testProviders("alpha")
	j, err := fx.store.Create("a sunset", nil, providers)
	require.NoError(t, err)

	fx.executor.Launch(j, providers)
	fx.executor.Wait()

	got, err := fx.store.Get(j.ID)
	require.NoError(t, err)
	task := got.Tasks[0]
	assert.GreaterOrEqual(t, task.DurationMS, int64(10))
	require.NotNil(t, task.StartedAt)
	require.NotNil(t, task.CompletedAt)
	assert.False(t, task.CompletedAt.Before(*task.StartedAt))
}

func TestLaunchImageKeyUsesNormalizedModelName(t *testing.T) {
	generate := func(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
		return "b64", nil
	}
	fx := newFixture(t, generate, time.Second)

	providers := testProviders("DALL-E 3")
	j, err := fx.store.Create("a sunset", nil, providers)
	require.NoError(t, err)

	fx.executor.Launch(j, providers)
	fx.executor.Wait()

	got, err := fx.store.Get(j.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got.Tasks[0].ResultKey, "/dall-e-3-"),
		"result key %q should embed the normalized model name", got.Tasks[0].ResultKey)
}
