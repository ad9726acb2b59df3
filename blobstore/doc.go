// Package blobstore provides the storage abstraction every k-means round
// reads its dataset from and writes its centroids, spills and outputs to.
//
// BlobStore is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem, mmap-backed reads, atomic writes
//   - MemoryStore: In-process map, used by tests and embedded runs
//   - CachingStore: Block cache in front of another store, so a dataset
//     re-scanned every iteration is fetched from the backend once
//   - s3.Store: Amazon S3 with range reads and streaming uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for streaming writes
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Put must be atomic: a reader either sees the previous content or the new
// content, never a mix. The centroid store relies on this for its
// publish-then-read contract.
package blobstore
