package ai

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Completion = (*Service)(nil)

// Service talks to any OpenAI-compatible completions endpoint.
type Service struct {
	client *openai.Client
	logger *log.Logger
}

func NewOpenAIService(logger *log.Logger, apiKey string, baseUrl string) *Service {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseUrl),
	)
	return &Service{
		client: &client,
		logger: logger,
	}
}

func (s *Service) Complete(ctx context.Context, prompt string, model string) (CompletionResult, error) {
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: model,
	})
	if err != nil {
		return CompletionResult{}, err
	}

	if len(completion.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("OpenAI returned no completion choices")
	}

	return CompletionResult{
		Content:      completion.Choices[0].Message.Content,
		TokensInput:  int(completion.Usage.PromptTokens),
		TokensOutput: int(completion.Usage.CompletionTokens),
	}, nil
}
