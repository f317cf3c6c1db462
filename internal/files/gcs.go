package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperrors "ventaperdida/internal/errors"
)

// GCSStore reads source files from a Cloud Storage bucket. Directories are object prefixes.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a bucket-backed store. Without options the client uses
// application default credentials.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("failed to create storage client", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Backend implements Store
func (s *GCSStore) Backend() string { return "gcs" }

// List implements Store
func (s *GCSStore) List(ctx context.Context, dir string) ([]FileInfo, error) {
	prefix := dirPrefix(dir)
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})

	var files []FileInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return files, nil
		}
		if err != nil {
			return nil, apperrors.NewSourceUnavailableError(
				fmt.Sprintf("failed to list gs://%s/%s", s.bucket, prefix), err)
		}
		// synthetic directory entries carry only Prefix
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		files = append(files, FileInfo{
			Name:    objectBaseName(attrs.Name),
			Handle:  attrs.Name,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
			Version: strconv.FormatInt(attrs.Generation, 10),
		})
	}
}

// Fetch implements Store
func (s *GCSStore) Fetch(ctx context.Context, handle string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(handle).NewReader(ctx)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to open gs://%s/%s", s.bucket, handle), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to read gs://%s/%s", s.bucket, handle), err)
	}
	return data, nil
}

// Close releases the storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func dirPrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

func objectBaseName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
