package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Empty(t, Split("", cfg))
	assert.Empty(t, Split("   \n\t  ", cfg))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	chunks := Split("A short document.", DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short document.", chunks[0])
}

func TestSplitRespectsMaxSize(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxChunkChars: 100, OverlapChars: 20}
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	chunks := Split(text, cfg)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqualf(t, len([]rune(c)), cfg.MaxChunkChars, "chunk %d over limit", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxChunkChars: 60, OverlapChars: 0}
	text := "First sentence here. Second sentence follows. Third one closes the text."

	chunks := Split(text, cfg)
	require.Greater(t, len(chunks), 1)
	// No chunk should end mid-word: each non-final chunk ends at a
	// sentence terminator.
	for _, c := range chunks[:len(chunks)-1] {
		last := c[len(c)-1]
		assert.Contains(t, ".!?", string(last), "chunk %q not cut at sentence end", c)
	}
}

func TestSplitHardCutWithoutBoundaries(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxChunkChars: 50, OverlapChars: 10}
	text := strings.Repeat("x", 200)

	chunks := Split(text, cfg)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), cfg.MaxChunkChars)
	}
	// All content survives the walk.
	assert.GreaterOrEqual(t, len(strings.Join(chunks, "")), len(text))
}

func TestSplitOverlapCarriesTrailingContext(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxChunkChars: 80, OverlapChars: 30}
	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 20)

	chunks := Split(text, cfg)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 20 {
			head = head[:20]
		}
		assert.Containsf(t, chunks[i-1], strings.TrimSpace(head),
			"chunk %d does not begin with context from its predecessor", i)
	}
}

func TestCleanStripsHTML(t *testing.T) {
	t.Parallel()

	in := "<html><body><h1>Heading</h1><p>Some   text here.</p></body></html>"
	assert.Equal(t, "Heading Some text here.", Clean(in))
}

func TestCleanPreservesParagraphBreaks(t *testing.T) {
	t.Parallel()

	in := "First paragraph.\n\n\n\nSecond   paragraph."
	got := Clean(in)
	assert.Contains(t, got, "First paragraph.\n\nSecond paragraph.")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MaxChunkChars: 0, OverlapChars: 0}.Validate())
	assert.Error(t, Config{MaxChunkChars: 100, OverlapChars: -1}.Validate())
	assert.Error(t, Config{MaxChunkChars: 100, OverlapChars: 100}.Validate())
}
