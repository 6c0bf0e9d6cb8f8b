// Package extractor provides named-entity extraction clients.
//
// The Client interface treats the NER model as a black box invoked per
// chunk. The engine's own responsibility is Normalize: trimming, folding
// and length-filtering raw detections before they become graph identity.
package extractor

import (
	"context"
	"strings"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Mention is one raw entity detection in a chunk's text.
type Mention struct {
	Name string           `json:"name"`
	Type types.EntityType `json:"type"`
	// Start and End delimit the detection's character span in the chunk.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Client identifies named entities in text. Implementations must be safe
// for concurrent use. No detections is a valid, non-error result.
type Client interface {
	// Extract returns the entity mentions detected in the text.
	Extract(ctx context.Context, text string) ([]Mention, error)

	// Close releases resources held by the client.
	Close() error
}

// Config holds settings shared by extraction providers.
type Config struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	// MinMentionLength drops detections shorter than this many characters;
	// single-character spans are almost always false positives.
	MinMentionLength int `mapstructure:"min_mention_length"`
}

// DefaultMinMentionLength is applied when the config leaves the filter
// unset.
const DefaultMinMentionLength = 2

// Normalize cleans raw extractor output: whitespace is trimmed, empty and
// sub-minimum detections are dropped. Case folding happens later, inside
// entity identity derivation, so the original surface form survives here.
func Normalize(mentions []Mention, minLength int) []Mention {
	if minLength <= 0 {
		minLength = DefaultMinMentionLength
	}

	out := make([]Mention, 0, len(mentions))
	for _, m := range mentions {
		name := strings.Join(strings.Fields(m.Name), " ")
		if len([]rune(name)) < minLength {
			continue
		}
		m.Name = name
		out = append(out, m)
	}
	return out
}
