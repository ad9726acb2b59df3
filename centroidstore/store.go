package centroidstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/model"
)

// DefaultName is the blob name used by BlobStore when none is configured.
const DefaultName = "centroids.txt"

// ErrNotPublished is returned by ReadAll before the first Publish.
var ErrNotPublished = errors.New("centroidstore: no centroids published")

// Store publishes and reads centroid sets.
type Store interface {
	// Publish replaces the current centroid set. Once it returns, every
	// subsequent ReadAll observes the new set.
	Publish(ctx context.Context, centroids []model.Centroid) error
	// ReadAll returns the current centroid set ordered by index.
	ReadAll(ctx context.Context) ([]model.Centroid, error)
}

// Encode renders centroids in the centroid line format, ascending by index.
func Encode(centroids []model.Centroid) []byte {
	sorted := model.CloneCentroids(centroids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var buf bytes.Buffer
	for _, c := range sorted {
		buf.WriteString(model.FormatCentroid(c))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Decode parses centroid lines of dimension d and returns them ordered by
// index. Indices must form exactly [0, k) without duplicates.
func Decode(data []byte, d int) ([]model.Centroid, error) {
	var out []model.Centroid
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 64<<20)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		c, err := model.ParseCentroid(text, d)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	for i, c := range out {
		if c.Index != i {
			if c.Index < i {
				return nil, fmt.Errorf("duplicate centroid index %d", c.Index)
			}
			return nil, fmt.Errorf("missing centroid index %d", i)
		}
	}
	return out, nil
}

// BlobStore keeps the centroid set as a single text blob.
type BlobStore struct {
	store blobstore.BlobStore
	name  string
	dim   int
}

var _ Store = (*BlobStore)(nil)

// NewBlobStore returns a Store writing name in store. An empty name
// selects DefaultName; dim is the point dimensionality.
func NewBlobStore(store blobstore.BlobStore, name string, dim int) *BlobStore {
	if name == "" {
		name = DefaultName
	}
	return &BlobStore{store: store, name: name, dim: dim}
}

// Name returns the blob name holding the centroids.
func (s *BlobStore) Name() string { return s.name }

// Publish atomically replaces the centroid blob.
func (s *BlobStore) Publish(ctx context.Context, centroids []model.Centroid) error {
	if err := s.store.Put(ctx, s.name, Encode(centroids)); err != nil {
		return fmt.Errorf("publish centroids to %q: %w", s.name, err)
	}
	return nil
}

// ReadAll reads and parses the centroid blob.
func (s *BlobStore) ReadAll(ctx context.Context) ([]model.Centroid, error) {
	data, err := blobstore.ReadAll(ctx, s.store, s.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotPublished
		}
		return nil, fmt.Errorf("read centroids from %q: %w", s.name, err)
	}
	cs, err := Decode(data, s.dim)
	if err != nil {
		return nil, fmt.Errorf("decode centroids from %q: %w", s.name, err)
	}
	return cs, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu        sync.RWMutex
	centroids []model.Centroid
	published bool
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish stores a deep copy of centroids.
func (m *Memory) Publish(ctx context.Context, centroids []model.Centroid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cs := model.CloneCentroids(centroids)
	sort.Slice(cs, func(i, j int) bool { return cs[i].Index < cs[j].Index })

	m.mu.Lock()
	m.centroids = cs
	m.published = true
	m.mu.Unlock()
	return nil
}

// ReadAll returns a deep copy of the current set.
func (m *Memory) ReadAll(ctx context.Context) ([]model.Centroid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.published {
		return nil, ErrNotPublished
	}
	return model.CloneCentroids(m.centroids), nil
}
