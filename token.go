package carspect

import "context"

// TokenCounter counts tokens in text for a specific model. Used to keep the
// gap-fill context inside a configured prompt budget.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
