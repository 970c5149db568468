package brief

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	maxTokens        = 1100
	webSearchMaxUses = 3
	webTemperature   = 0.45
	plainTemperature = 0.35
)

// AnthropicModel generates briefs with the Anthropic Messages API.
type AnthropicModel struct {
	client anthropic.Client
}

// NewAnthropicModel returns a model using apiKey. opts are appended after the
// key, so tests can point the client at a fake server.
func NewAnthropicModel(apiKey string, opts ...option.RequestOption) *AnthropicModel {
	return &AnthropicModel{client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)}
}

// Generate streams one response and returns its text plus any cited URLs.
func (m *AnthropicModel) Generate(ctx context.Context, req Request) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(plainTemperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.WebSearch {
		params.Temperature = anthropic.Float(webTemperature)
		params.Tools = []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{MaxUses: anthropic.Int(webSearchMaxUses)}},
		}
	}

	stream := m.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return Response{}, fmt.Errorf("accumulate: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, fmt.Errorf("streaming error: %w", err)
	}

	var text strings.Builder
	var citations []string
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		text.WriteString(block.Text)
		for _, c := range block.Citations {
			if c.URL != "" {
				citations = append(citations, c.URL)
			}
		}
	}
	return Response{Text: text.String(), Citations: citations}, nil
}
