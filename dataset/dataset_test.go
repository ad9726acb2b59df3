package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/resource"
)

func put(t *testing.T, store blobstore.BlobStore, name string, data []byte) *Dataset {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, name, data))
	ds, err := Open(ctx, store, name)
	require.NoError(t, err)
	return ds
}

func collect(t *testing.T, scan func(fn func(Record) error) error) []Record {
	t.Helper()
	var out []Record
	require.NoError(t, scan(func(r Record) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func TestScan(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds := put(t, store, "points.txt", []byte("0,0\r\n0,1\n\n10,0\n10,1"))

	recs := collect(t, func(fn func(Record) error) error { return ds.Scan(context.Background(), fn) })
	assert.Equal(t, []Record{
		{Offset: 0, Line: "0,0"},
		{Offset: 5, Line: "0,1"},
		{Offset: 10, Line: "10,0"},
		{Offset: 15, Line: "10,1"},
	}, recs)
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(context.Background(), blobstore.NewMemoryStore(), "missing.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestSplits(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds := put(t, store, "points.txt", []byte(strings.Repeat("x", 25)))

	assert.Equal(t, []Split{
		{Index: 0, Offset: 0, Length: 10},
		{Index: 1, Offset: 10, Length: 10},
		{Index: 2, Offset: 20, Length: 5},
	}, ds.Splits(10))
	assert.Len(t, ds.Splits(0), 1)

	empty := put(t, store, "empty.txt", nil)
	assert.Empty(t, empty.Splits(10))
}

// Every record must be owned by exactly one split, wherever the boundaries fall.
func TestScanSplit_EveryRecordExactlyOnce(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "%d,%d.%d\n", i, i*i, i%7)
		if i%10 == 0 {
			sb.WriteString("\n")
		}
	}
	store := blobstore.NewMemoryStore()
	ds := put(t, store, "points.txt", []byte(sb.String()))

	want := collect(t, func(fn func(Record) error) error { return ds.Scan(context.Background(), fn) })
	require.Len(t, want, 50)

	for _, size := range []int64{1, 2, 3, 7, 8, 64, 1 << 20} {
		var got []Record
		for _, s := range ds.Splits(size) {
			got = append(got, collect(t, func(fn func(Record) error) error {
				return ds.ScanSplit(context.Background(), s, fn)
			})...)
		}
		assert.Equal(t, want, got, "split size %d", size)
	}
}

func TestScan_StopsOnCallbackError(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds := put(t, store, "points.txt", []byte("1,1\n2,2\n3,3\n"))

	stop := errors.New("stop")
	var seen int
	err := ds.Scan(context.Background(), func(Record) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestScan_Canceled(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds := put(t, store, "points.txt", []byte("1,1\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ds.Scan(ctx, func(Record) error { return nil }), context.Canceled)
}

func TestScan_Compressed(t *testing.T) {
	content := "0,0\n0,1\n10,0\n10,1\n"

	var zbuf bytes.Buffer
	zw, err := zstd.NewWriter(&zbuf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var lbuf bytes.Buffer
	lw := lz4.NewWriter(&lbuf)
	_, err = lw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	store := blobstore.NewMemoryStore()
	for name, data := range map[string][]byte{"points.txt.zst": zbuf.Bytes(), "points.txt.lz4": lbuf.Bytes()} {
		ds := put(t, store, name, data)
		assert.NotEqual(t, None, ds.Compression())
		require.Len(t, ds.Splits(4), 1)

		recs := collect(t, func(fn func(Record) error) error { return ds.Scan(context.Background(), fn) })
		require.Len(t, recs, 4, name)
		assert.Equal(t, Record{Offset: 13, Line: "10,1"}, recs[3])

		err := ds.ScanSplit(context.Background(), Split{Index: 1, Offset: 4, Length: 4}, func(Record) error { return nil })
		assert.Error(t, err)
	}
}

func TestScan_RateLimited(t *testing.T) {
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "points.txt", []byte("1,1\n2,2\n")))

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	ds, err := Open(context.Background(), store, "points.txt", WithResourceController(rc))
	require.NoError(t, err)

	recs := collect(t, func(fn func(Record) error) error { return ds.Scan(context.Background(), fn) })
	assert.Len(t, recs, 2)
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, None, CompressionFor("points.txt"))
	assert.Equal(t, Zstd, CompressionFor("points.ZST"))
	assert.Equal(t, LZ4, CompressionFor("dir/points.txt.lz4"))
	assert.Equal(t, "zstd", Zstd.String())
}
