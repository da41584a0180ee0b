// Package extract turns uploaded documents (.txt, .md, .pdf) into the raw
// text the quiz pipeline consumes.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the upload types the service accepts.
var SupportedExtensions = []string{".txt", ".md", ".pdf"}

// Supported reports whether the filename has an extension this package can
// extract text from.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// FromFile extracts the full plain text of the document at path, dispatching
// on the file extension.
func FromFile(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		return fromPlainText(path)
	case ".pdf":
		return fromPDF(path)
	default:
		return "", fmt.Errorf("unsupported document type %q", ext)
	}
}

func fromPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
