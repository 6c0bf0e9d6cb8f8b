package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphfuse/graphfuse/pkg/types"
)

func TestNormalizeTrimsAndFilters(t *testing.T) {
	t.Parallel()

	in := []Mention{
		{Name: "  Marie   Curie ", Type: types.EntityPerson},
		{Name: "A", Type: types.EntityOther},
		{Name: "   ", Type: types.EntityOther},
		{Name: "Acme Corp", Type: types.EntityOrganization},
	}

	out := Normalize(in, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "Marie Curie", out[0].Name)
	assert.Equal(t, "Acme Corp", out[1].Name)
}

func TestNormalizeDefaultMinLength(t *testing.T) {
	t.Parallel()

	out := Normalize([]Mention{{Name: "X"}, {Name: "Xe"}}, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "Xe", out[0].Name)
}

func TestParseMentions(t *testing.T) {
	t.Parallel()

	content := `[
		{"name": "Marie Curie", "type": "Person", "start": 0, "end": 11},
		{"name": "Sorbonne", "type": "ORG", "start": 30, "end": 38}
	]`

	mentions, err := parseMentions(content)
	require.NoError(t, err)
	require.Len(t, mentions, 2)
	assert.Equal(t, types.EntityPerson, mentions[0].Type)
	assert.Equal(t, types.EntityOrganization, mentions[1].Type)
}

func TestParseMentionsRepairsSloppyJSON(t *testing.T) {
	t.Parallel()

	content := "```json\n[{\"name\": \"Paris\", \"type\": \"GPE\", \"start\": 5, \"end\": 10},]\n```"

	mentions, err := parseMentions(content)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Paris", mentions[0].Name)
	assert.Equal(t, types.EntityLocation, mentions[0].Type)
}

func TestParseMentionsEmptyArray(t *testing.T) {
	t.Parallel()

	mentions, err := parseMentions("[]")
	require.NoError(t, err)
	assert.Empty(t, mentions, "no detections is a valid result")
}

func TestMockClientDetectsCapitalizedRuns(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	m.Known = map[string]types.EntityType{
		"marie curie": types.EntityPerson,
	}

	mentions, err := m.Extract(context.Background(), "the physicist Marie Curie worked in a lab")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Marie Curie", mentions[0].Name)
	assert.Equal(t, types.EntityPerson, mentions[0].Type)
}

func TestMockClientNoEntities(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	mentions, err := m.Extract(context.Background(), "all lowercase words only here")
	require.NoError(t, err)
	assert.Empty(t, mentions)
}

func TestMockClientOverride(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	m.ExtractFunc = func(ctx context.Context, text string) ([]Mention, error) {
		return []Mention{{Name: "Acme", Type: types.EntityOrganization}}, nil
	}

	mentions, err := m.Extract(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Acme", mentions[0].Name)
	assert.Equal(t, 1, m.CallCount())
}
