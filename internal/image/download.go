package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/storybuddy/internal"
)

// DefaultMaxSizeBytes caps a single illustration download.
const DefaultMaxSizeBytes = 10 * 1024 * 1024

// Downloader fetches illustration bytes for display or saving
type Downloader struct {
	httpClient   *http.Client
	maxSizeBytes int64
}

// NewDownloader creates a downloader. maxSizeBytes <= 0 selects the default.
func NewDownloader(httpClient *http.Client, maxSizeBytes int64) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &Downloader{httpClient: httpClient, maxSizeBytes: maxSizeBytes}
}

// Fetch downloads url into memory
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > d.maxSizeBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", d.maxSizeBytes)
	}

	return data, nil
}

// SaveAll downloads every url into dir as illustration_<n>_<keyword>.<ext>
// and returns the written paths. Failed downloads are skipped and reported
// in the returned error; the other files are still written.
func (d *Downloader) SaveAll(ctx context.Context, dir string, keywords, urls []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var paths []string
	var failed []string
	for i, url := range urls {
		keyword := ""
		if i < len(keywords) {
			keyword = keywords[i]
		}

		data, err := d.Fetch(ctx, url)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%d: %v", i+1, err))
			continue
		}

		path := filepath.Join(dir, illustrationFileName(i, keyword, url))
		if err := os.WriteFile(path, data, 0644); err != nil {
			failed = append(failed, fmt.Sprintf("%d: %v", i+1, err))
			continue
		}
		paths = append(paths, path)
	}

	if len(failed) > 0 {
		return paths, fmt.Errorf("failed to save illustrations: %s", strings.Join(failed, "; "))
	}
	return paths, nil
}

func illustrationFileName(index int, keyword, url string) string {
	name := fmt.Sprintf("illustration_%d", index+1)
	if keyword != "" {
		name += "_" + internal.SanitizeFilename(keyword)
	}

	// Unsplash URLs carry the format as a query parameter, not an extension
	ext := strings.ToLower(filepath.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".jpg"
	}
	return name + ext
}
