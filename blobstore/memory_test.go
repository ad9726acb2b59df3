package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "centroids.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("0\t0,0.5\n"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "centroids.txt")
	require.ErrorIs(t, err, ErrNotFound, "not visible before Close")

	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	b, err := store.Open(ctx, "centroids.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(8), b.Size())

	p := make([]byte, 3)
	n, err := b.ReadAt(ctx, p, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "0,0", string(p))

	// snapshot semantics
	require.NoError(t, store.Put(ctx, "centroids.txt", []byte("changed")))
	rc, err := b.ReadRange(ctx, 0, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "0\t0,0.5\n", string(got))
	require.NoError(t, b.Close())

	require.NoError(t, store.Delete(ctx, "centroids.txt"))
	require.NoError(t, store.Delete(ctx, "centroids.txt"))
	_, err = store.Open(ctx, "centroids.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("1,2\n")
	require.NoError(t, store.Put(ctx, "a", buf))
	buf[0] = '9'

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "1,2\n", string(got))
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"out_2/part-r-00000", "out_1/part-r-00001", "out_1/part-r-00000", "input.txt"} {
		require.NoError(t, store.Put(ctx, name, []byte("x")))
	}

	names, err := store.List(ctx, "out_1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"out_1/part-r-00000", "out_1/part-r-00001"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSectionReader(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", []byte("0123456789")))

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)

	got, err := io.ReadAll(NewSectionReader(ctx, b, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, "3456", string(got))

	// section extending past the end stops at the end
	got, err = io.ReadAll(NewSectionReader(ctx, b, 8, 10))
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))

	_, err = b.ReadRange(ctx, -1, 2)
	assert.Error(t, err)
}
