// Package dataset reads a point dataset stored as line-oriented text in a
// blobstore.
//
// Plain text inputs are split into byte ranges that are scanned
// independently: a split owns every record whose first byte lies inside its
// range, so records are never lost or read twice regardless of where split
// boundaries fall. Inputs ending in ".zst" or ".lz4" are decompressed on the
// fly and always form a single split.
package dataset
