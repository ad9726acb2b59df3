//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func osAdviseSequential(data []byte) error {
	// madvise wants page-aligned addresses; the hint is advisory only.
	err := unix.Madvise(data, unix.MADV_SEQUENTIAL)
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}
