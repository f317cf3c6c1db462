package files

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	apperrors "ventaperdida/internal/errors"
)

// DriveStore reads source files from Google Drive folders. Directories are folder ids.
type DriveStore struct {
	service *drive.Service
}

// NewDriveStore creates a Drive client. Pass option.WithCredentialsFile for a
// service account; tests pass option.WithEndpoint and option.WithHTTPClient.
func NewDriveStore(ctx context.Context, opts ...option.ClientOption) (*DriveStore, error) {
	opts = append([]option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}, opts...)
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("failed to create drive client", err)
	}
	return &DriveStore{service: service}, nil
}

// Backend implements Store
func (s *DriveStore) Backend() string { return "drive" }

// List implements Store
func (s *DriveStore) List(ctx context.Context, folderID string) ([]FileInfo, error) {
	var (
		files     []FileInfo
		pageToken string
	)

	for {
		call := s.service.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
			Fields("nextPageToken, files(id, name, size, modifiedTime, md5Checksum, mimeType)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, apperrors.NewSourceUnavailableError(
				fmt.Sprintf("failed to list drive folder %s", folderID), err)
		}

		for _, f := range resp.Files {
			if f.MimeType == "application/vnd.google-apps.folder" {
				continue
			}
			modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			files = append(files, FileInfo{
				Name:    f.Name,
				Handle:  f.Id,
				Size:    f.Size,
				ModTime: modTime,
				Version: f.Md5Checksum,
			})
		}

		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Fetch implements Store
func (s *DriveStore) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to download drive file %s", fileID), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("failed to read drive file %s", fileID), err)
	}
	return data, nil
}
