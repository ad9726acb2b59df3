// Package cache provides an LRU cache for fixed-size blocks of immutable
// blobs. Input datasets are re-scanned once per iteration, so caching their
// blocks saves a round trip to remote storage on every iteration after the
// first. Memory held by the cache is accounted against a resource.Controller.
package cache
