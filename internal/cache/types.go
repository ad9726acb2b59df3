package cache

import "context"

// Key identifies one block of one blob.
// Blobs are assumed immutable for the lifetime of the cache.
type Key struct {
	// Path is the blob name within its store.
	Path string
	// Block is the zero-based block number (offset / block size).
	Block int64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. The caller must treat b as immutable afterwards.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
	// Close releases the memory held by the cache.
	Close() error
}
