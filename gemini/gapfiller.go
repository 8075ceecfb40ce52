// Package gemini provides a GapFiller and TokenCounter backed by Google
// Gemini.
package gemini

import (
	"context"

	"github.com/AbhigyanVE/carspect"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// Ensure GapFiller implements carspect.GapFiller at compile time.
var _ carspect.GapFiller = (*GapFiller)(nil)

// GapFiller fills missing required fields using Gemini in JSON output mode.
type GapFiller struct {
	client *genai.Client
}

// NewGapFiller creates a new GapFiller.
func NewGapFiller(client *genai.Client) *GapFiller {
	return &GapFiller{client: client}
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
	config := BuildConfig()

	result, err := g.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return nil, nil, carspect.Errorf(carspect.EEXTERNAL, "gemini request failed: %v", err)
	}
	if result == nil {
		return nil, nil, carspect.Errorf(carspect.EEXTERNAL, "gemini returned nil result")
	}

	fields, err := carspect.DecodeLLMFields(result.Text())
	if err != nil {
		return nil, nil, err
	}

	usage := &carspect.Usage{}
	if meta := result.UsageMetadata; meta != nil {
		usage.PromptTokens = int(meta.PromptTokenCount)
		usage.CompletionTokens = int(meta.CandidatesTokenCount)
		usage.TotalTokens = int(meta.TotalTokenCount)
	}

	return fields, usage, nil
}

// BuildConfig returns the GenerateContentConfig for gap-fill calls. JSON
// response mode keeps the model from wrapping output in prose or fences.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a vehicle listing analyst. You extract structured vehicle data from listing page text. Respond with a single JSON object and nothing else. Use empty values for anything the text does not state.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}
