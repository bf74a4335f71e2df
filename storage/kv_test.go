package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfan/pixelfan/errors"
)

// kvImplementations lets every contract test run against both backends.
func kvImplementations(t *testing.T) map[string]KV {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "kv_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]KV{
		"sqlite": sqlite,
		"memory": NewMemoryKV(),
	}
}

func TestKVPutGet(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put("jobs/jb-1", []byte(`{"status":"pending"}`)))

			value, err := kv.Get("jobs/jb-1")
			require.NoError(t, err)
			assert.Equal(t, `{"status":"pending"}`, string(value))
		})
	}
}

func TestKVOverwrite(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put("k", []byte("first")))
			require.NoError(t, kv.Put("k", []byte("second")))

			value, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "second", string(value))
		})
	}
}

func TestKVGetMissing(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("no-such-key")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestKVListPrefix(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put("jobs/a", []byte("1")))
			require.NoError(t, kv.Put("jobs/b", []byte("2")))
			require.NoError(t, kv.Put("rate-limits/global", []byte("3")))

			keys, err := kv.ListPrefix("jobs/")
			require.NoError(t, err)
			assert.Equal(t, []string{"jobs/a", "jobs/b"}, keys)

			keys, err = kv.ListPrefix("missing/")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}
