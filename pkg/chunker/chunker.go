// Package chunker turns cleaned document text into bounded, overlapping
// chunks. Splitting prefers paragraph and sentence boundaries so that a
// sentence is not severed mid-word, falling back to a hard character cut
// only when no boundary exists within the limit.
package chunker

import (
	"strings"
	"unicode"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Config bounds chunk size and the trailing context repeated at the start
// of the next chunk.
type Config struct {
	MaxChunkChars int `mapstructure:"max_chunk_chars"`
	OverlapChars  int `mapstructure:"overlap_chars"`
}

// DefaultConfig returns chunking defaults suitable for sentence-level
// embeddings.
func DefaultConfig() Config {
	return Config{MaxChunkChars: 1200, OverlapChars: 200}
}

// Validate checks the config for caller errors.
func (c Config) Validate() error {
	if c.MaxChunkChars <= 0 {
		return types.NewValidationError("max_chunk_chars", "must be positive")
	}
	if c.OverlapChars < 0 {
		return types.NewValidationError("overlap_chars", "must be non-negative")
	}
	if c.OverlapChars >= c.MaxChunkChars {
		return types.NewValidationError("overlap_chars", "must be smaller than max_chunk_chars")
	}
	return nil
}

// Clean strips HTML tags and normalizes whitespace while preserving
// paragraph breaks, which the splitter uses as preferred boundaries.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	// Collapse horizontal whitespace per line, then cap blank runs at one
	// empty line so double newlines survive as paragraph boundaries.
	lines := strings.Split(strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Split divides text into ordered chunks of at most MaxChunkChars, each
// (after the first) starting with up to OverlapChars of the previous
// chunk's tail. Empty or whitespace-only input yields no chunks.
func Split(text string, cfg Config) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChunkChars
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := boundaryCut(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - cfg.OverlapChars
		if next <= start {
			// Overlap must never stall the walk.
			next = start + 1
		}
		start = next
	}
	return chunks
}

// boundaryCut picks the split position within (start, limit]: the last
// paragraph break wins, then the last sentence end, then the last word
// break. A hard cut at limit is the fallback for boundary-free text.
func boundaryCut(runes []rune, start, limit int) int {
	// Searching the whole window would allow pathologically small chunks;
	// only boundaries in the trailing half are considered.
	floor := start + (limit-start)/2

	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i
		}
	}
	for i := limit - 1; i > floor; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := limit - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return limit
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
