package testutil

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/mrkmeans/blobstore"
)

// ErrInjected is the default error returned by an injected fault.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailOnOpen   bool
	FailOnRead   bool
	FailOnWrite  bool // Put, and Write on blobs from Create
	FailOnDelete bool
	Err          error
}

// FaultyStore is a BlobStore wrapper that can inject errors.
type FaultyStore struct {
	blobstore.BlobStore

	mu    sync.Mutex
	rules map[string]Fault // name substring -> Fault
}

// NewFaultyStore wraps store.
func NewFaultyStore(store blobstore.BlobStore) *FaultyStore {
	return &FaultyStore{BlobStore: store, rules: make(map[string]Fault)}
}

// AddRule adds a fault for every blob whose name contains pattern.
func (f *FaultyStore) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.rules[pattern] = fault
}

func (f *FaultyStore) fault(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			return rule, true
		}
	}
	return Fault{}, false
}

// Open implements blobstore.BlobStore.
func (f *FaultyStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	fault, ok := f.fault(name)
	if ok && fault.FailOnOpen {
		return nil, fault.Err
	}
	b, err := f.BlobStore.Open(ctx, name)
	if err != nil || !ok || !fault.FailOnRead {
		return b, err
	}
	return &faultyBlob{Blob: b, err: fault.Err}, nil
}

// Create implements blobstore.BlobStore.
func (f *FaultyStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := f.BlobStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if fault, ok := f.fault(name); ok && fault.FailOnWrite {
		return &faultyWritableBlob{WritableBlob: w, err: fault.Err}, nil
	}
	return w, nil
}

// Put implements blobstore.BlobStore.
func (f *FaultyStore) Put(ctx context.Context, name string, data []byte) error {
	if fault, ok := f.fault(name); ok && fault.FailOnWrite {
		return fault.Err
	}
	return f.BlobStore.Put(ctx, name, data)
}

// Delete implements blobstore.BlobStore.
func (f *FaultyStore) Delete(ctx context.Context, name string) error {
	if fault, ok := f.fault(name); ok && fault.FailOnDelete {
		return fault.Err
	}
	return f.BlobStore.Delete(ctx, name)
}

type faultyBlob struct {
	blobstore.Blob
	err error
}

func (b *faultyBlob) ReadAt(context.Context, []byte, int64) (int, error) {
	return 0, b.err
}

func (b *faultyBlob) ReadRange(context.Context, int64, int64) (io.ReadCloser, error) {
	return nil, b.err
}

type faultyWritableBlob struct {
	blobstore.WritableBlob
	err error
}

func (w *faultyWritableBlob) Write([]byte) (int, error) {
	return 0, w.err
}
