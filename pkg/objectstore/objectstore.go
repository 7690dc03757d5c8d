// Package objectstore abstracts object storage for the scan engine. A Store
// resolves an object location into either a seekable whole-object file handle
// (local stores) or a byte stream (remote stores); callers that need the full
// payload buffer streams through GetResult.Bytes.
package objectstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ajitpratap0/quasar/pkg/errors"
)

// ObjectMeta identifies one stored object. It is owned by the caller and
// read-only to the engine.
type ObjectMeta struct {
	// Location is the store-relative object path
	Location string
	// Size is the object size in bytes
	Size int64
	// LastModified is the object modification time
	LastModified time.Time
}

// GetResult is the payload of a successful Get. Exactly one of the file
// handle or the byte stream is set.
type GetResult struct {
	Meta   ObjectMeta
	file   *os.File
	stream io.ReadCloser
}

// File returns the seekable whole-object handle, if the store exposes one.
func (r *GetResult) File() (*os.File, bool) {
	return r.file, r.file != nil
}

// Stream returns the byte stream, if the store returned one.
func (r *GetResult) Stream() (io.ReadCloser, bool) {
	return r.stream, r.stream != nil
}

// Bytes buffers the entire payload into memory and returns it. For file
// handles it reads from the current offset; for streams it drains the stream.
func (r *GetResult) Bytes() ([]byte, error) {
	var src io.Reader
	switch {
	case r.file != nil:
		src = r.file
	case r.stream != nil:
		src = r.stream
	default:
		return nil, errors.New(errors.ErrorTypeInternal, "get result has no payload")
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read object %s", r.Meta.Location)
	}
	return data, nil
}

// Close releases the underlying handle or stream.
func (r *GetResult) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	if r.stream != nil {
		return r.stream.Close()
	}
	return nil
}

// Store resolves object locations into byte sources. Implementations must be
// safe for concurrent use. Stores do not retry; transient-failure policy
// belongs to the caller or the underlying SDK.
type Store interface {
	// Get opens the object at location for reading
	Get(ctx context.Context, location string) (*GetResult, error)
	// Head returns metadata for the object at location without opening it
	Head(ctx context.Context, location string) (ObjectMeta, error)
	// List returns metadata for every object under prefix, sorted by location
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
}

// LocalStore serves objects from a directory on the local filesystem. Get
// returns seekable file handles.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(location string) string {
	return filepath.Join(s.root, filepath.FromSlash(location))
}

// Get opens the object as a whole-file handle.
func (s *LocalStore) Get(ctx context.Context, location string) (*GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "get canceled")
	}

	f, err := os.Open(s.path(location))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to open object %s", location)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to stat object %s", location)
	}

	return &GetResult{
		Meta: ObjectMeta{
			Location:     location,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		},
		file: f,
	}, nil
}

// Head stats the object without opening it for reading.
func (s *LocalStore) Head(ctx context.Context, location string) (ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return ObjectMeta{}, errors.Wrap(err, errors.ErrorTypeStorage, "head canceled")
	}

	info, err := os.Stat(s.path(location))
	if err != nil {
		return ObjectMeta{}, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to stat object %s", location)
	}

	return ObjectMeta{
		Location:     location,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// List walks the root and returns every regular file under prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var objects []ObjectMeta

	err := filepath.Walk(s.path(prefix), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		objects = append(objects, ObjectMeta{
			Location:     filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to list objects under %s", prefix)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Location < objects[j].Location })
	return objects, nil
}

// MemoryStore is an in-memory Store used by tests and fixtures. Get returns
// byte streams, exercising the buffered (non-seekable) read path.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// Put stores data under location, replacing any previous object.
func (s *MemoryStore) Put(location string, data []byte) ObjectMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj := memoryObject{data: data, modified: time.Now()}
	s.objects[location] = obj

	return ObjectMeta{
		Location:     location,
		Size:         int64(len(data)),
		LastModified: obj.modified,
	}
}

// Get returns the object as a byte stream.
func (s *MemoryStore) Get(ctx context.Context, location string) (*GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "get canceled")
	}

	s.mu.RLock()
	obj, ok := s.objects[location]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeStorage, "object %s not found", location)
	}

	return &GetResult{
		Meta: ObjectMeta{
			Location:     location,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
		},
		stream: io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

// Head returns metadata for the stored object.
func (s *MemoryStore) Head(ctx context.Context, location string) (ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return ObjectMeta{}, errors.Wrap(err, errors.ErrorTypeStorage, "head canceled")
	}

	s.mu.RLock()
	obj, ok := s.objects[location]
	s.mu.RUnlock()

	if !ok {
		return ObjectMeta{}, errors.Newf(errors.ErrorTypeStorage, "object %s not found", location)
	}

	return ObjectMeta{
		Location:     location,
		Size:         int64(len(obj.data)),
		LastModified: obj.modified,
	}, nil
}

// List returns every object whose location has the given prefix.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "list canceled")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []ObjectMeta
	for location, obj := range s.objects {
		if len(location) >= len(prefix) && location[:len(prefix)] == prefix {
			objects = append(objects, ObjectMeta{
				Location:     location,
				Size:         int64(len(obj.data)),
				LastModified: obj.modified,
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Location < objects[j].Location })
	return objects, nil
}
