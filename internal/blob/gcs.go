package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCSStore reads objects through the Cloud Storage JSON API.
type GCSStore struct {
	service *storage.Service
}

// NewGCSStore creates a GCSStore. Options select credentials or an emulator
// endpoint; with none, application default credentials are used.
func NewGCSStore(ctx context.Context, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append([]option.ClientOption{option.WithScopes(storage.DevstorageReadOnlyScope)}, opts...)
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create storage service: %w", err)
	}
	return &GCSStore{service: svc}, nil
}

// GetObject downloads the object media.
func (s *GCSStore) GetObject(ctx context.Context, bucket, path string) ([]byte, error) {
	resp, err := s.service.Objects.Get(bucket, path).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, path, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download gs://%s/%s: %w", bucket, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, path, err)
	}
	return data, nil
}
