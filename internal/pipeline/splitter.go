package pipeline

import (
	"path/filepath"
	"strings"
)

// DefaultChunkSize is the maximum number of characters per segment. It leaves
// a safe margin under Gemini's per-request token budget.
const DefaultChunkSize = 15000

// SplitText partitions text into ordered, contiguous, non-overlapping segments
// of at most size characters each; the final segment may be shorter.
// Concatenating the result reproduces text exactly. Empty text yields nil.
//
// Sizes are counted in runes so multi-byte characters never split.
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	segments := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}

// knownExtensions are the document extensions stripped when deriving a quiz
// identifier from a filename.
var knownExtensions = []string{".pdf", ".txt", ".md", ".docx"}

// baseIdentifier derives the document identifier from a filename: the base
// name with any known extension removed. "cancer_report.pdf" -> "cancer_report".
func baseIdentifier(filename string) string {
	base := filepath.Base(filename)
	lower := strings.ToLower(base)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}
