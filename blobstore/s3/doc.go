// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("kmeans/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Reads are ranged GETs, so dataset splits are fetched independently by
// the map tasks. Streaming writes go through the multipart upload manager
// and become visible when the writer is closed.
package s3
