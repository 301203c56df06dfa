package knowledge

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/aomail-ai/knowledge/pkg/ai"
	"github.com/aomail-ai/knowledge/pkg/prompts"
)

// Synthesizer turns the aggregated keypoints into a direct answer with a
// confidence flag. The prompt biases the model toward sure=false under
// ambiguity: an honest "unsure" beats a confident wrong answer.
type Synthesizer struct {
	llm    ai.Completion
	model  string
	logger *log.Logger
}

func NewSynthesizer(llm ai.Completion, model string, logger *log.Logger) *Synthesizer {
	return &Synthesizer{
		llm:    llm,
		model:  model,
		logger: logger,
	}
}

type synthesizedAnswer struct {
	Sure   bool   `json:"sure"`
	Answer string `json:"answer"`
}

// Synthesize answers the question strictly from the aggregated keypoints. An
// unparsable body fails closed to ErrInsufficientData, mirroring the
// selector; the caller never sees a raw parse failure.
func (s *Synthesizer) Synthesize(ctx context.Context, aggregated Aggregated, question string, language string) (answer string, sure bool, usage TokenUsage, err error) {
	keypointsJSON, err := json.Marshal(aggregated)
	if err != nil {
		return "", false, TokenUsage{}, err
	}

	prompt, err := prompts.BuildKnowledgeAnswerPrompt(prompts.KnowledgeAnswerPrompt{
		Keypoints: string(keypointsJSON),
		Question:  question,
		Language:  language,
	})
	if err != nil {
		return "", false, TokenUsage{}, err
	}

	result, err := s.llm.Complete(ctx, prompt, s.model)
	if err != nil {
		return "", false, TokenUsage{}, &TransportError{Err: err}
	}
	usage = TokenUsage{TokensInput: result.TokensInput, TokensOutput: result.TokensOutput}

	var parsed synthesizedAnswer
	if err := json.Unmarshal([]byte(stripJSONFences(result.Content)), &parsed); err != nil {
		s.logger.Warn("Synthesizer returned unparsable body, failing closed", "error", err)
		return "", false, usage, ErrInsufficientData
	}
	if parsed.Answer == "" {
		s.logger.Warn("Synthesizer returned an empty answer, failing closed")
		return "", false, usage, ErrInsufficientData
	}

	return parsed.Answer, parsed.Sure, usage, nil
}
