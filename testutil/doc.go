// Package testutil provides testing utilities for mrkmeans.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG for generating clustered point
// sets and helpers to store them as datasets.
//
//	rng := testutil.NewRNG(seed)
//	points, labels := rng.ClusteredPoints(1000, centers, 0.5)
//	_ = testutil.WriteDataset(ctx, store, "points.txt", points)
package testutil
