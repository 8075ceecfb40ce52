// Package openai provides a GapFiller and TokenCounter backed by the OpenAI
// chat completions API.
package openai

import (
	"context"

	"github.com/AbhigyanVE/carspect"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultModel is the chat model used for gap filling.
const DefaultModel = "gpt-4-turbo-preview"

const systemPrompt = "You are a vehicle listing analyst. You extract structured vehicle data from listing page text. Respond with a single JSON object and nothing else. Use empty values for anything the text does not state."

// Ensure GapFiller implements carspect.GapFiller at compile time.
var _ carspect.GapFiller = (*GapFiller)(nil)

// GapFiller fills missing required fields using OpenAI chat completions in
// JSON object mode.
type GapFiller struct {
	client openai.Client
	model  string
}

// Option configures a GapFiller.
type Option func(*GapFiller)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(g *GapFiller) {
		g.model = model
	}
}

// NewGapFiller creates a GapFiller authenticated with the given API key.
func NewGapFiller(apiKey string, opts ...Option) *GapFiller {
	g := &GapFiller{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fill asks the model for the missing fields given the partial record and
// page context, and returns the decoded fields with token usage.
func (g *GapFiller) Fill(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
	if record == nil {
		return nil, nil, carspect.Errorf(carspect.EINVALID, "record required")
	}
	if len(missing) == 0 {
		return nil, nil, carspect.Errorf(carspect.EINVALID, "missing fields required")
	}

	prompt := carspect.BuildFillPrompt(record, missing, contextText)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, nil, carspect.Errorf(carspect.EEXTERNAL, "openai request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, carspect.Errorf(carspect.EEXTERNAL, "openai returned no choices")
	}

	fields, err := carspect.DecodeLLMFields(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, nil, err
	}

	usage := &carspect.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	return fields, usage, nil
}
