package ai

import (
	"context"
)

// CompletionResult carries the model output together with the token counts
// the caller must account for; usage is billed per token upstream.
type CompletionResult struct {
	Content      string
	TokensInput  int
	TokensOutput int
}

type Completion interface {
	Complete(ctx context.Context, prompt string, model string) (CompletionResult, error)
}
