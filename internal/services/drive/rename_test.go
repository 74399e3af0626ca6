package drive_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline/driveline/internal/models"
)

func TestRenameFile(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the blob to the new name", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		docs := f.mustMkdir(t, "docs", nil)
		node := f.mustUpload(t, "report.txt", "contents", &docs.ID)

		renamed, err := f.svc.Rename(ctx, owner, node.ID, "report-v2.txt")
		require.NoError(t, err)
		assert.Equal(t, "report-v2.txt", renamed.Name)
		assert.Equal(t, "/docs/report-v2.txt", renamed.Path)

		data, err := f.blobs.Read("/docs/report-v2.txt")
		require.NoError(t, err)
		assert.Equal(t, "contents", string(data))

		exists, err := f.blobs.Exists(node.Path)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		node := f.mustUpload(t, "a.txt", "x", nil)

		renamed, err := f.svc.Rename(ctx, owner, node.ID, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, node.Path, renamed.Path)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		node := f.mustUpload(t, "a.txt", "x", nil)

		_, err := f.svc.Rename(ctx, owner, node.ID, "  ")
		assert.ErrorIs(t, err, models.ErrInvalidName)
	})

	t.Run("foreign node rejected", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		node := f.mustUpload(t, "a.txt", "x", nil)

		_, err := f.svc.Rename(ctx, intruder, node.ID, "b.txt")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("move failure aborts with metadata untouched", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		node := f.mustUpload(t, "a.txt", "x", nil)
		f.blobs.FailOps["move"] = true

		_, err := f.svc.Rename(ctx, owner, node.ID, "b.txt")
		require.Error(t, err)
		assert.True(t, models.IsPhysical(err, models.OpMove))

		stored, err := f.store.FindByID(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", stored.Name)
		assert.Equal(t, node.Path, stored.Path)
	})
}

func TestRenameFolderCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<20)

	docs := f.mustMkdir(t, "docs", nil)
	a := f.mustUpload(t, "a.txt", "top", &docs.ID)
	sub := f.mustMkdir(t, "sub", &docs.ID)
	b := f.mustUpload(t, "b.txt", "deep", &sub.ID)
	deep := f.mustMkdir(t, "deep", &sub.ID)
	c := f.mustUpload(t, "c.txt", "deeper", &deep.ID)

	renamed, err := f.svc.Rename(ctx, owner, docs.ID, "papers")
	require.NoError(t, err)
	assert.Equal(t, "papers", renamed.Name)
	assert.Equal(t, "/papers/", renamed.Path)

	t.Run("every descendant path rewritten", func(t *testing.T) {
		for id, want := range map[int64]string{
			sub.ID:  "/papers/sub/",
			deep.ID: "/papers/sub/deep/",
		} {
			node, err := f.store.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, node.Path)
		}

		for id, prefix := range map[int64]string{
			a.ID: "/papers/",
			b.ID: "/papers/sub/",
			c.ID: "/papers/sub/deep/",
		} {
			node, err := f.store.FindByID(ctx, id)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(node.Path, prefix), "path %q", node.Path)
		}
	})

	t.Run("blobs moved with the directory", func(t *testing.T) {
		for _, path := range f.blobs.Paths() {
			assert.True(t, strings.HasPrefix(path, "papers/"), "path %q", path)
		}
	})

	t.Run("files remain readable through the engine", func(t *testing.T) {
		got, err := f.svc.Get(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.False(t, got.Lost)

		data, err := f.blobs.Read(got.Path)
		require.NoError(t, err)
		assert.Equal(t, "deeper", string(data))
	})

	t.Run("hierarchy untouched, only paths changed", func(t *testing.T) {
		children, err := f.svc.List(ctx, owner, &docs.ID)
		require.NoError(t, err)
		assert.Len(t, children, 2)
	})
}
