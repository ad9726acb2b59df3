// Package manifest records the outcome of a k-means run.
package manifest

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/codec"
	"github.com/hupe1980/mrkmeans/model"
)

const (
	// SummaryFileName is the blob written below the output prefix.
	SummaryFileName = "_SUMMARY.json"
	CurrentVersion  = 1
)

// Summary describes a terminated run.
type Summary struct {
	Version       int     `json:"version"`
	RunID         string  `json:"run_id"`
	K             int     `json:"k"`
	D             int     `json:"d"`
	N             int64   `json:"n"`
	Threshold     float64 `json:"threshold"`
	MaxIterations int     `json:"max_iterations"`
	Reducers      int     `json:"reducers"`
	Input         string  `json:"input"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	// Displacements holds the max squared displacement of every iteration.
	Displacements []float64        `json:"displacements"`
	Centroids     []model.Centroid `json:"centroids"`
	StartedAt     time.Time        `json:"started_at"`
	Elapsed       time.Duration    `json:"elapsed"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Path returns the summary location for the output prefix.
func Path(output string) string {
	return path.Join(output, SummaryFileName)
}

// Save writes s below output, replacing any earlier summary.
func Save(ctx context.Context, store blobstore.BlobStore, output string, s *Summary, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	data, err := c.Marshal(s)
	if err != nil {
		return fmt.Errorf("manifest: encode summary: %w", err)
	}
	if err := store.Put(ctx, Path(output), data); err != nil {
		return fmt.Errorf("manifest: write summary: %w", err)
	}
	return nil
}

// Load reads the summary written below output.
func Load(ctx context.Context, store blobstore.BlobStore, output string, c codec.Codec) (*Summary, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := blobstore.ReadAll(ctx, store, Path(output))
	if err != nil {
		return nil, fmt.Errorf("manifest: read summary: %w", err)
	}
	var s Summary
	if err := c.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("manifest: decode summary: %w", err)
	}
	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("manifest: unsupported version %d", s.Version)
	}
	return &s, nil
}
