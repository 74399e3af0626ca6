package drive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline/driveline/internal/models"
)

func TestVirtualPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<20)

	docs := f.mustMkdir(t, "docs", nil)
	sub := f.mustMkdir(t, "sub", &docs.ID)
	file := f.mustUpload(t, "a.txt", "x", &sub.ID)

	t.Run("root-first name chain", func(t *testing.T) {
		names, err := f.svc.VirtualPath(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"docs", "sub", "a.txt"}, names)
	})

	t.Run("root node has a single segment", func(t *testing.T) {
		names, err := f.svc.VirtualPath(ctx, docs.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"docs"}, names)
	})

	t.Run("dangling ancestor is corruption", func(t *testing.T) {
		require.NoError(t, f.store.Delete(ctx, docs.ID))

		_, err := f.svc.VirtualPath(ctx, file.ID)
		assert.ErrorIs(t, err, models.ErrBrokenChain)
	})
}

func TestPathChain(t *testing.T) {
	ctx := context.Background()

	t.Run("full breadcrumb root to node", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		docs := f.mustMkdir(t, "docs", nil)
		sub := f.mustMkdir(t, "sub", &docs.ID)
		file := f.mustUpload(t, "a.txt", "x", &sub.ID)

		chain, err := f.svc.PathChain(ctx, owner, file.ID)
		require.NoError(t, err)
		require.Len(t, chain, 3)
		assert.Equal(t, docs.ID, chain[0].ID)
		assert.Equal(t, sub.ID, chain[1].ID)
		assert.Equal(t, file.ID, chain[2].ID)
	})

	t.Run("lost ancestor is marked, walk continues", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		docs := f.mustMkdir(t, "docs", nil)
		sub := f.mustMkdir(t, "sub", &docs.ID)
		file := f.mustUpload(t, "a.txt", "x", &sub.ID)

		// Remove the middle directory from disk only.
		require.NoError(t, f.blobs.DeleteTree(sub.Path))

		chain, err := f.svc.PathChain(ctx, owner, file.ID)
		require.NoError(t, err)
		require.Len(t, chain, 3)
		assert.False(t, chain[0].Lost)
		assert.True(t, chain[1].Lost)
		assert.True(t, chain[2].Lost)
	})

	t.Run("walk stops at a deleted ancestor", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		docs := f.mustMkdir(t, "docs", nil)
		sub := f.mustMkdir(t, "sub", &docs.ID)
		file := f.mustUpload(t, "a.txt", "x", &sub.ID)

		require.NoError(t, f.svc.SoftDelete(ctx, docs.ID))

		chain, err := f.svc.PathChain(ctx, owner, file.ID)
		require.NoError(t, err)
		require.Len(t, chain, 2)
		assert.Equal(t, sub.ID, chain[0].ID)
	})

	t.Run("foreign chain rejected", func(t *testing.T) {
		f := newFixture(t, 1<<20)
		file := f.mustUpload(t, "a.txt", "x", nil)

		_, err := f.svc.PathChain(ctx, intruder, file.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("missing node yields empty chain", func(t *testing.T) {
		f := newFixture(t, 1<<20)

		chain, err := f.svc.PathChain(ctx, owner, 9999)
		require.NoError(t, err)
		assert.Empty(t, chain)
	})
}

func TestDescendants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1<<20)

	docs := f.mustMkdir(t, "docs", nil)
	a := f.mustUpload(t, "a.txt", "a", &docs.ID)
	sub := f.mustMkdir(t, "sub", &docs.ID)
	b := f.mustUpload(t, "b.txt", "b", &sub.ID)
	gone := f.mustUpload(t, "gone.txt", "g", &sub.ID)
	require.NoError(t, f.svc.SoftDelete(ctx, gone.ID))

	// A sibling tree that must not appear.
	other := f.mustMkdir(t, "other", nil)
	f.mustUpload(t, "elsewhere.txt", "e", &other.ID)

	descendants, err := f.svc.Descendants(ctx, owner, docs.ID)
	require.NoError(t, err)

	ids := make(map[int64]bool, len(descendants))
	for _, d := range descendants {
		ids[d.ID] = true
	}

	assert.Len(t, descendants, 3)
	assert.True(t, ids[a.ID])
	assert.True(t, ids[sub.ID])
	assert.True(t, ids[b.ID])
	assert.False(t, ids[gone.ID])
}
