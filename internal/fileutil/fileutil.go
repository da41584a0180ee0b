package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveTextToFile writes text to path, creating parent directories as needed.
func SaveTextToFile(text, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
