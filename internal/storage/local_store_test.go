package storage_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/storage"
)

func newLocalStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)
	return store
}

func TestLocalStoreReadWrite(t *testing.T) {
	store := newLocalStore(t)

	t.Run("write then read", func(t *testing.T) {
		require.NoError(t, store.Write("docs/a.txt", []byte("hello")))

		data, err := store.Read("docs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("stream write reports size", func(t *testing.T) {
		n, err := store.WriteStream("docs/b.txt", strings.NewReader("streamed content"))
		require.NoError(t, err)
		assert.Equal(t, int64(len("streamed content")), n)

		rc, err := store.Open("docs/b.txt")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "streamed content", string(data))
	})

	t.Run("read missing blob", func(t *testing.T) {
		_, err := store.Read("docs/missing.txt")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := store.Exists("docs/a.txt")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.Exists("nope")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestLocalStoreDelete(t *testing.T) {
	store := newLocalStore(t)

	t.Run("delete blob", func(t *testing.T) {
		require.NoError(t, store.Write("x.txt", []byte("x")))
		require.NoError(t, store.Delete("x.txt"))

		exists, err := store.Exists("x.txt")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete missing blob is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Delete("never-existed.txt"))
	})

	t.Run("delete tree removes nested entries", func(t *testing.T) {
		require.NoError(t, store.Write("tree/a.txt", []byte("a")))
		require.NoError(t, store.Write("tree/sub/b.txt", []byte("b")))
		require.NoError(t, store.Write("tree/sub/deep/c.txt", []byte("c")))

		require.NoError(t, store.DeleteTree("tree"))

		exists, err := store.Exists("tree")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete missing tree is a no-op", func(t *testing.T) {
		assert.NoError(t, store.DeleteTree("ghost-dir"))
	})
}

func TestLocalStoreMove(t *testing.T) {
	store := newLocalStore(t)

	t.Run("move blob", func(t *testing.T) {
		require.NoError(t, store.Write("old.txt", []byte("payload")))
		require.NoError(t, store.Move("old.txt", "renamed/new.txt"))

		data, err := store.Read("renamed/new.txt")
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		exists, err := store.Exists("old.txt")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("move directory carries subtree", func(t *testing.T) {
		require.NoError(t, store.Write("docs/sub/a.txt", []byte("a")))
		require.NoError(t, store.Move("docs", "papers"))

		data, err := store.Read("papers/sub/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "a", string(data))
	})
}

func TestLocalStoreSanitization(t *testing.T) {
	tmpDir := t.TempDir()
	var buf bytes.Buffer
	store, err := storage.NewLocalStore(tmpDir, events.NewTestLogger(&buf))
	require.NoError(t, err)

	// Plant a file outside the root that traversal would reach.
	outside := filepath.Join(filepath.Dir(tmpDir), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	defer os.Remove(outside)

	cases := []string{
		"../outside.txt",
		"docs/../../outside.txt",
		"bad\x00name",
	}
	for _, path := range cases {
		t.Run(path, func(t *testing.T) {
			_, err := store.Read(path)
			assert.Error(t, err)

			err = store.Write(path, []byte("x"))
			assert.Error(t, err)
		})
	}

	t.Run("leading slash stays under root", func(t *testing.T) {
		require.NoError(t, store.Write("/abs/a.txt", []byte("a")))

		data, err := store.Read("abs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "a", string(data))
	})
}

func TestLocalStoreAtomicWrite(t *testing.T) {
	store := newLocalStore(t)

	// Overwrites go through a temp file, so a reader never sees a torn blob.
	require.NoError(t, store.Write("doc.txt", []byte("version one")))
	require.NoError(t, store.Write("doc.txt", []byte("version two")))

	data, err := store.Read("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "version two", string(data))
}
