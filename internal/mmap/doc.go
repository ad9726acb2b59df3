// Package mmap provides read-only memory-mapped file access.
//
// LocalStore maps dataset files so that every split of every iteration
// reads straight from the page cache without copying through a buffer.
//
// # Usage
//
//	m, err := mmap.Open("points.csv")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.AdviseSequential()
//	chunk, _ := m.Slice(off, end)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), madvise(2) for read-ahead
//   - Windows: CreateFileMapping/MapViewOfFile (AdviseSequential is a no-op)
//
// Close is idempotent. Callers must not touch slices returned by Bytes or
// Slice after Close returns.
package mmap
