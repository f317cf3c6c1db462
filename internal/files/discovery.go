package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Extensions of the supported source files.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// FindByExtension lists dir and keeps the files whose name ends in ext
// (case-insensitive), sorted by name.
func FindByExtension(ctx context.Context, store Store, dir, ext string) ([]FileInfo, error) {
	listing, err := store.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	return FilterByExtension(listing, ext), nil
}

// FilterByExtension keeps the files whose name ends in ext, sorted by name.
func FilterByExtension(listing []FileInfo, ext string) []FileInfo {
	ext = strings.ToLower(ext)

	var files []FileInfo
	for _, f := range listing {
		if strings.HasSuffix(strings.ToLower(f.Name), ext) {
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files
}

// Fingerprint returns a stable digest of a listing. It changes whenever a file
// is added, removed, resized, touched or re-versioned, and is used as the data
// version for cache invalidation.
func Fingerprint(groups ...[]FileInfo) string {
	var lines []string
	for _, group := range groups {
		for _, f := range group {
			lines = append(lines, fmt.Sprintf("%s\x1f%s\x1f%d\x1f%d\x1f%s",
				f.Handle, f.Name, f.Size, f.ModTime.UnixNano(), f.Version))
		}
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
