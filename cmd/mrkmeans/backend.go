package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/blobstore/minio"
	"github.com/hupe1980/mrkmeans/blobstore/s3"
	"github.com/hupe1980/mrkmeans/internal/cache"
	"github.com/hupe1980/mrkmeans/resource"
)

// openStore returns the blob store named by cfg.Backend.
//
// The memory backend stages input from the local file system, which makes
// it useful for dry runs that must not write anything.
func openStore(ctx context.Context, cfg storageConfig, input string) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		return blobstore.NewLocalStore(cfg.Root), nil
	case "memory":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("stage input: %w", err)
		}
		store := blobstore.NewMemoryStore()
		if err := store.Put(ctx, input, data); err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("s3 backend requires --bucket")
		}
		opts := []s3.Option{s3.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		store, err := s3.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		if cfg.Bucket == "" || cfg.Endpoint == "" {
			return nil, errors.New("minio backend requires --bucket and --endpoint")
		}
		opts := []minio.Option{minio.WithPrefix(cfg.Prefix), minio.WithSecure(cfg.Secure)}
		if cfg.AccessKey != "" {
			opts = append(opts, minio.WithCredentials(cfg.AccessKey, cfg.SecretKey))
		}
		if cfg.Region != "" {
			opts = append(opts, minio.WithRegion(cfg.Region))
		}
		store, err := minio.New(cfg.Endpoint, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want local, memory, s3 or minio)", cfg.Backend)
	}
}

// localLayout roots the local store at the deepest directory that holds
// both input and output, and returns their names relative to it.
// Relative paths are resolved against root, absolute paths are kept.
func localLayout(root, input, output string) (string, string, string, error) {
	in, err := resolvePath(root, input)
	if err != nil {
		return "", "", "", err
	}
	out, err := resolvePath(root, output)
	if err != nil {
		return "", "", "", err
	}

	base := filepath.Dir(in)
	for !contains(base, out) {
		parent := filepath.Dir(base)
		if parent == base {
			return "", "", "", fmt.Errorf("input %q and output %q share no common directory", input, output)
		}
		base = parent
	}

	relIn, err := filepath.Rel(base, in)
	if err != nil {
		return "", "", "", err
	}
	relOut, err := filepath.Rel(base, out)
	if err != nil {
		return "", "", "", err
	}
	return base, filepath.ToSlash(relIn), filepath.ToSlash(relOut), nil
}

func resolvePath(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return filepath.Abs(p)
}

// contains reports whether p lies strictly below dir. The output itself
// must not become the root, or its sibling round directories would fall
// outside the store.
func contains(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// withCache puts a block cache of the given capacity in front of store.
func withCache(store blobstore.BlobStore, capacity, blockSize int64, rc *resource.Controller) (blobstore.BlobStore, func() error) {
	if capacity <= 0 {
		return store, func() error { return nil }
	}
	c := cache.NewLRUBlockCache(capacity, rc)
	return blobstore.NewCachingStore(store, c, blockSize), c.Close
}
