// Package blob fetches settlement files from object storage.
package blob

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when the bucket has no object at the path.
var ErrObjectNotFound = errors.New("object not found")

// Store reads whole objects.
type Store interface {
	GetObject(ctx context.Context, bucket, path string) ([]byte, error)
}
