package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	apperrors "ventaperdida/internal/errors"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubStore reads source files from a repository through the contents API.
type GitHubStore struct {
	client  *http.Client
	baseURL string
	repo    string // owner/name
	ref     string
	token   string
}

// GitHubOption customizes a GitHubStore
type GitHubOption func(*GitHubStore)

// WithGitHubBaseURL points the store at a different API host (GitHub Enterprise, tests).
func WithGitHubBaseURL(u string) GitHubOption {
	return func(s *GitHubStore) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(s *GitHubStore) { s.client = c }
}

// NewGitHubStore creates a store for repo ("owner/name") at ref, authenticated with token.
func NewGitHubStore(repo, ref, token string, timeout time.Duration, opts ...GitHubOption) *GitHubStore {
	s := &GitHubStore{
		client:  &http.Client{Timeout: timeout},
		baseURL: DefaultGitHubAPI,
		repo:    strings.Trim(repo, "/"),
		ref:     ref,
		token:   token,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend implements Store
func (s *GitHubStore) Backend() string { return "github" }

type githubEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// List implements Store
func (s *GitHubStore) List(ctx context.Context, dir string) ([]FileInfo, error) {
	body, err := s.get(ctx, dir, "application/vnd.github.v3+json")
	if err != nil {
		return nil, err
	}

	var entries []githubEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("unexpected listing for %s", dir), err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		files = append(files, FileInfo{
			Name:    e.Name,
			Handle:  e.Path,
			Size:    e.Size,
			Version: e.SHA,
		})
	}
	return files, nil
}

// Fetch implements Store
func (s *GitHubStore) Fetch(ctx context.Context, handle string) ([]byte, error) {
	return s.get(ctx, handle, "application/vnd.github.v3.raw")
}

func (s *GitHubStore) get(ctx context.Context, p, accept string) ([]byte, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, escapePath(p))
	if s.ref != "" {
		u += "?ref=" + url.QueryEscape(s.ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("failed to build request", err)
	}
	req.Header.Set("Accept", accept)
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("request for %s failed", p), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("failed to read %s", p), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("github returned %d for %s", resp.StatusCode, p), nil).
			WithContext("status", resp.StatusCode)
	}
	return body, nil
}

// escapePath escapes each segment so names with spaces or accents survive.
func escapePath(p string) string {
	parts := strings.Split(path.Clean("/" + p)[1:], "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
