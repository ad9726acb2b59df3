// Package mrkmeans clusters points with iterative k-means expressed as a
// map/combine/reduce computation.
//
// Every iteration (a round) publishes the current centroids, assigns every
// point of the input to its nearest centroid in parallel map tasks that
// fold their points into one partial aggregate per centroid, reduces the
// aggregates of each centroid index into its new position and finally
// compares the new centroids with the old ones.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./data")
//	d, err := mrkmeans.New(mrkmeans.Config{
//	    K: 8, D: 2, N: 100000,
//	    Threshold:     1e-6,
//	    MaxIterations: 50,
//	    Reducers:      4,
//	    Input:         "points.txt",
//	    Output:        "clusters",
//	}, store, mrkmeans.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := d.Run(ctx)
//
// # Storage Layout
//
// Below the configured output prefix a run writes:
//
//	<output>/centroids.txt                  centroids published for the current round
//	<output>_<i>/part-r-<reducer>           centroids produced by round i, "index<TAB>c0,c1,..."
//	<output>_<i>/_intermediate/map-<n>.zst  map spills, removed unless kept
//	<output>/_SUMMARY.json                  run summary, see package manifest
//
// Any blobstore.BlobStore works: local disk, memory, S3 (blobstore/s3) or
// MinIO (blobstore/minio).
//
// # Termination
//
// The loop stops when every centroid moved by a squared distance of at
// most Threshold, or after MaxIterations rounds. A centroid that received
// no points stops the run with a *DegenerateClusterError; restart with a
// different seed or a smaller k.
//
// # Errors
//
// Run fails with one of four error types, matched with errors.Is against
// ErrInvalidArgument, ErrMalformedInput, ErrDegenerateCluster and
// ErrRoundFailure. Input whose per-cluster coordinate sum overflows
// float64 is reported as malformed. A failure to read the input while
// seeding is a round failure of iteration 0.
package mrkmeans
