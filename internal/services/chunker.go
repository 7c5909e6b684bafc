package services

import "strings"

// Chunker splits extracted document text into fixed-size sliding
// windows. Sizes are measured in runes, not bytes, so multi-byte
// characters never split a window boundary.
type Chunker struct {
	windowSize int
	stride     int
}

// NewChunker creates a chunker. A stride smaller than windowSize makes
// consecutive windows overlap; stride must be positive.
func NewChunker(windowSize, stride int) *Chunker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	if stride <= 0 {
		stride = 800
	}
	return &Chunker{windowSize: windowSize, stride: stride}
}

// Split returns the sliding windows over text. Windows that contain
// only whitespace are dropped without consuming a chunk index. The
// final window may be shorter than windowSize.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(runes); start += c.stride {
		end := start + c.windowSize
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) == "" {
			continue
		}
		chunks = append(chunks, window)
	}
	return chunks
}
