package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/blobstore"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket, WithPrefix(fmt.Sprintf("test-mrkmeans-%d/", time.Now().UnixNano())))
	require.NoError(t, err)

	data := []byte("0,0\n0,1\n10,0\n10,1\n")

	w, err := store.Create(ctx, "points.txt")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "points.txt")

	got, err := blobstore.ReadAll(ctx, store, "points.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Put(ctx, "centroids.txt", []byte("0\t0,0.5\n")))
	got, err = blobstore.ReadAll(ctx, store, "centroids.txt")
	require.NoError(t, err)
	assert.Equal(t, "0\t0,0.5\n", string(got))

	require.NoError(t, store.Delete(ctx, "points.txt"))
	require.NoError(t, store.Delete(ctx, "centroids.txt"))

	_, err = store.Open(ctx, "points.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
