package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Stories moves the stories directory into a timestamped folder under a
// sibling "archive" directory and returns the new location.
func Stories(storiesDir string) (string, error) {
	if _, err := os.Stat(storiesDir); os.IsNotExist(err) {
		return "", fmt.Errorf("stories directory does not exist: %s", storiesDir)
	}

	archiveDir := filepath.Join(filepath.Dir(storiesDir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	now := time.Now()
	archivePath := filepath.Join(archiveDir, "stories-"+now.Format("20060102-150405"))
	if _, err := os.Stat(archivePath); err == nil {
		// Same second as an earlier archive
		archivePath = filepath.Join(archiveDir, "stories-"+now.Format("20060102-150405.000000"))
	}

	if err := os.Rename(storiesDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive stories directory: %w", err)
	}
	return archivePath, nil
}
