package extractor

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// MockClient is a test double for Client. By default it detects runs of
// capitalized words as entities, which is enough to exercise linking,
// deduplication and co-occurrence logic without a model.
type MockClient struct {
	// ExtractFunc overrides Extract when set.
	ExtractFunc func(ctx context.Context, text string) ([]Mention, error)

	// Known maps normalized entity names to types; detections found in
	// the map use the mapped type instead of the default.
	Known map[string]types.EntityType

	callCount atomic.Int64
}

// NewMockClient creates a mock extractor.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Extract detects capitalized word runs as entity mentions.
func (m *MockClient) Extract(ctx context.Context, text string) ([]Mention, error) {
	m.callCount.Add(1)
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}

	var mentions []Mention
	words := strings.Fields(text)
	offset := 0
	var run []string
	runStart := 0

	flush := func(end int) {
		if len(run) == 0 {
			return
		}
		name := strings.Join(run, " ")
		typ := types.EntityOther
		if m.Known != nil {
			if t, ok := m.Known[types.NormalizeEntityName(name)]; ok {
				typ = t
			}
		}
		mentions = append(mentions, Mention{Name: name, Type: typ, Start: runStart, End: end})
		run = nil
	}

	for _, w := range words {
		pos := strings.Index(text[offset:], w) + offset
		trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if trimmed != "" && unicode.IsUpper([]rune(trimmed)[0]) {
			if len(run) == 0 {
				runStart = pos
			}
			run = append(run, trimmed)
		} else {
			flush(pos)
		}
		offset = pos + len(w)
	}
	flush(len(text))

	return Normalize(mentions, DefaultMinMentionLength), nil
}

// Close implements Client.
func (m *MockClient) Close() error { return nil }

// CallCount returns how many times Extract was invoked.
func (m *MockClient) CallCount() int { return int(m.callCount.Load()) }
