package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/blobstore"
)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "/kmeans/")
	assert.Equal(t, "kmeans/out_1/part-r-00000", s.key("out_1/part-r-00000"))
	assert.Equal(t, "kmeans/points.txt", s.key("/points.txt"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "points.txt", s.key("points.txt"))
}

// TestMinioStore_Integration requires a running MinIO instance at
// MINIO_ENDPOINT (credentials from MINIO_ACCESS_KEY / MINIO_SECRET_KEY).
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}
	bucket := "test-mrkmeans"

	store, err := New(endpoint, bucket,
		WithCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
		WithPrefix(fmt.Sprintf("run-%d/", time.Now().UnixNano())),
	)
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("0,0\n0,1\n10,0\n10,1\n")
	require.NoError(t, store.Put(ctx, "points.txt", data))

	blob, err := store.Open(ctx, "points.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "10,0", string(buf))

	rc, err := blob.ReadRange(ctx, 13, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "10,1\n", string(got))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	wb, err := store.Create(ctx, "out_1/part-r-00000")
	require.NoError(t, err)
	_, err = wb.Write([]byte("0\t0,0.5\n"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"out_1/part-r-00000", "points.txt"}, names)

	require.NoError(t, store.Delete(ctx, "points.txt"))
	require.NoError(t, store.Delete(ctx, "out_1/part-r-00000"))
	_, err = store.Open(ctx, "points.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
