package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/graphfuse/graphfuse/pkg/types"
)

const extractionPrompt = `Identify the named entities in the text below.
Respond with a JSON array only, no prose. Each element:
{"name": "<entity as written>", "type": "<Person|Organization|Location|Other>", "start": <char offset>, "end": <char offset>}
Return [] if the text contains no named entities.

Text:
%s`

// OpenAIClient implements Client using a chat-completion model on the
// OpenAI API (or any compatible endpoint via BaseURL).
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates an OpenAI-backed entity extractor.
func NewOpenAIClient(config Config) *OpenAIClient {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Extract identifies named entities in the text.
func (c *OpenAIClient) Extract(ctx context.Context, text string) ([]Mention, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(extractionPrompt, text),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("entity extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("entity extraction returned no choices")
	}

	mentions, err := parseMentions(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return Normalize(mentions, c.config.MinMentionLength), nil
}

// Close implements Client.
func (c *OpenAIClient) Close() error { return nil }

// parseMentions decodes the model's JSON output, repairing common LLM JSON
// defects (trailing commas, code fences, single quotes) first.
func parseMentions(content string) ([]Mention, error) {
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, fmt.Errorf("unparseable extraction output: %w", err)
	}

	var raw []struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	mentions := make([]Mention, 0, len(raw))
	for _, r := range raw {
		mentions = append(mentions, Mention{
			Name:  r.Name,
			Type:  types.ParseEntityType(r.Type),
			Start: r.Start,
			End:   r.End,
		})
	}
	return mentions, nil
}
