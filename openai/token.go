package openai

import (
	"context"

	"github.com/AbhigyanVE/carspect"
	"github.com/pkoukk/tiktoken-go"
)

var _ carspect.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens with the tiktoken encoding of the target model.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter creates a TokenCounter for the given model, falling back
// to cl100k_base for models tiktoken does not know.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TokenCounter{enc: enc}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(tc.enc.Encode(text, nil, nil)), nil
}
