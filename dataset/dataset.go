package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/resource"
)

// DefaultSplitSize is the split size used when none is given.
const DefaultSplitSize int64 = 32 << 20

const readBufferSize = 64 << 10

// Compression identifies how a dataset is encoded.
type Compression int

const (
	// None is plain text.
	None Compression = iota
	// Zstd is a zstd-compressed stream (".zst").
	Zstd
	// LZ4 is an lz4 frame (".lz4").
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionFor returns the compression implied by the extension of name.
func CompressionFor(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// Record is one line of the dataset.
type Record struct {
	// Offset is the position of the first byte of the line, counted in
	// the uncompressed stream.
	Offset int64
	// Line is the content without the line terminator.
	Line string
}

// Split is a byte range of the dataset scanned by one map task.
type Split struct {
	Index  int
	Offset int64
	Length int64
}

func (s Split) String() string {
	return fmt.Sprintf("split-%05d[%d+%d]", s.Index, s.Offset, s.Length)
}

// Option configures a Dataset.
type Option func(*options)

type options struct {
	rc *resource.Controller
}

// WithResourceController throttles reads with the controller's IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// Dataset is a restartable, finite sequence of text records.
// It is safe for concurrent scans.
type Dataset struct {
	store       blobstore.BlobStore
	name        string
	size        int64
	compression Compression
	rc          *resource.Controller
}

// Open resolves name in store and returns a Dataset over it.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Dataset, error) {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", name, err)
	}
	size := b.Size()
	if err := b.Close(); err != nil {
		return nil, err
	}

	return &Dataset{
		store:       store,
		name:        name,
		size:        size,
		compression: CompressionFor(name),
		rc:          o.rc,
	}, nil
}

// Name returns the blob name of the dataset.
func (d *Dataset) Name() string { return d.name }

// Size returns the stored (possibly compressed) size in bytes.
func (d *Dataset) Size() int64 { return d.size }

// Compression returns the dataset encoding.
func (d *Dataset) Compression() Compression { return d.compression }

// Splits partitions the dataset into byte ranges of at most size bytes.
// A non-positive size selects DefaultSplitSize. Compressed datasets yield a
// single split; an empty plain dataset yields none.
func (d *Dataset) Splits(size int64) []Split {
	if size <= 0 {
		size = DefaultSplitSize
	}
	if d.compression != None {
		return []Split{{Index: 0, Offset: 0, Length: d.size}}
	}

	splits := make([]Split, 0, (d.size+size-1)/size)
	for off := int64(0); off < d.size; off += size {
		splits = append(splits, Split{
			Index:  len(splits),
			Offset: off,
			Length: min(size, d.size-off),
		})
	}
	return splits
}

// Scan calls fn for every record of the dataset in order.
// Scanning stops at the first error returned by fn.
func (d *Dataset) Scan(ctx context.Context, fn func(Record) error) error {
	return d.ScanSplit(ctx, Split{Offset: 0, Length: d.size}, fn)
}

// ScanSplit calls fn for every record owned by s.
func (d *Dataset) ScanSplit(ctx context.Context, s Split, fn func(Record) error) error {
	if s.Offset < 0 || s.Length < 0 {
		return fmt.Errorf("invalid split %s", s)
	}
	if d.compression != None && s.Offset != 0 {
		return fmt.Errorf("dataset %q is %s-compressed and cannot be split", d.name, d.compression)
	}

	b, err := d.store.Open(ctx, d.name)
	if err != nil {
		return fmt.Errorf("open dataset %q: %w", d.name, err)
	}
	defer func() { _ = b.Close() }()

	if d.compression != None {
		return d.scanCompressed(ctx, b, fn)
	}
	return d.scanRange(ctx, b, s, fn)
}

func (d *Dataset) scanRange(ctx context.Context, b blobstore.Blob, s Split, fn func(Record) error) error {
	size := b.Size()
	end := min(s.Offset+s.Length, size)
	if s.Offset >= end {
		return nil
	}

	// Starting one byte early and discarding through the first newline
	// lands on the first record that begins at or after s.Offset.
	start := s.Offset
	skipFirst := false
	if start > 0 {
		start--
		skipFirst = true
	}

	r := bufio.NewReaderSize(
		resource.NewRateLimitedReader(ctx, blobstore.NewSectionReader(ctx, b, start, size-start), d.rc),
		readBufferSize,
	)

	pos := start
	if skipFirst {
		n, err := discardLine(r)
		pos += n
		if err != nil {
			return ignoreEOF(err)
		}
	}

	return scanLines(ctx, r, pos, end, fn)
}

func (d *Dataset) scanCompressed(ctx context.Context, b blobstore.Blob, fn func(Record) error) error {
	raw := resource.NewRateLimitedReader(ctx, blobstore.NewSectionReader(ctx, b, 0, b.Size()), d.rc)

	var r io.Reader
	switch d.compression {
	case Zstd:
		zr, err := zstd.NewReader(raw, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	case LZ4:
		r = lz4.NewReader(raw)
	}

	return scanLines(ctx, bufio.NewReaderSize(r, readBufferSize), 0, -1, fn)
}

// scanLines reads records starting at pos until one starts at or after end.
// A negative end reads to EOF.
func scanLines(ctx context.Context, r *bufio.Reader, pos, end int64, fn func(Record) error) error {
	for end < 0 || pos < end {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := r.ReadString('\n')
		if len(line) > 0 {
			rec := Record{Offset: pos, Line: strings.TrimRight(line, "\r\n")}
			pos += int64(len(line))
			if rec.Line != "" {
				if ferr := fn(rec); ferr != nil {
					return ferr
				}
			}
		}
		if err != nil {
			return ignoreEOF(err)
		}
	}
	return nil
}

func discardLine(r *bufio.Reader) (int64, error) {
	var n int64
	for {
		chunk, err := r.ReadSlice('\n')
		n += int64(len(chunk))
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return n, err
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
