package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore serves objects from a directory tree laid out as
// <root>/<bucket>/<path>. An empty bucket reads directly under root.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Root returns the directory objects are read from.
func (s *LocalStore) Root() string {
	return s.root
}

// GetObject reads the object file. Paths escaping the bucket are rejected.
func (s *LocalStore) GetObject(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" || !filepath.IsLocal(path) || (bucket != "" && !filepath.IsLocal(bucket)) {
		return nil, fmt.Errorf("invalid object path %q in bucket %q", path, bucket)
	}

	full := filepath.Join(s.root, bucket, path)
	data, err := os.ReadFile(full) // #nosec G304 -- path is confined to the store root
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, path, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, path, err)
	}
	return data, nil
}
