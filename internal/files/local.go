package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "ventaperdida/internal/errors"
)

// LocalStore serves source files from a directory tree on disk. Handles are
// relative to the base path unless the listed dir was absolute.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a store rooted at basePath
func NewLocalStore(basePath string) *LocalStore {
	return &LocalStore{basePath: basePath}
}

// Backend implements Store
func (s *LocalStore) Backend() string { return "local" }

// List implements Store
func (s *LocalStore) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := s.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to read directory %s", fullPath), err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Handle:  filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// Fetch implements Store
func (s *LocalStore) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.resolve(handle))
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to read %s", handle), err)
	}
	return data, nil
}

// resolve joins relative paths to the base path; absolute paths are used as-is
func (s *LocalStore) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.basePath, p)
}
