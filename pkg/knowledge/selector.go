package knowledge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/aomail-ai/knowledge/pkg/ai"
	"github.com/aomail-ai/knowledge/pkg/prompts"
)

// Selection is the pruned top of the tree: category -> organizations worth
// searching. A direction-only index, not a copy of any keypoints.
type Selection map[string][]string

// Selector asks the LLM which (category, organization) pairs are plausibly
// relevant to the question. No heuristic string matching: label sets are
// small, ambiguous, and user-defined, so the model's judgment is trusted
// entirely. The prompt biases it toward precision over recall.
type Selector struct {
	llm    ai.Completion
	model  string
	logger *log.Logger
}

func NewSelector(llm ai.Completion, model string, logger *log.Logger) *Selector {
	return &Selector{
		llm:    llm,
		model:  model,
		logger: logger,
	}
}

// Select returns the relevant subset of the tree's labels. An unparsable LLM
// body fails closed: empty selection, nil error, so the query short-circuits
// to "not enough data" instead of guessing.
func (s *Selector) Select(ctx context.Context, tree *Tree, question string) (Selection, TokenUsage, error) {
	labels := tree.Labels()
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, TokenUsage{}, err
	}

	prompt, err := prompts.BuildSelectCategoriesPrompt(prompts.SelectCategoriesPrompt{
		Categories: string(labelsJSON),
		Question:   question,
	})
	if err != nil {
		return nil, TokenUsage{}, err
	}

	result, err := s.llm.Complete(ctx, prompt, s.model)
	if err != nil {
		return nil, TokenUsage{}, &TransportError{Err: err}
	}
	usage := TokenUsage{TokensInput: result.TokensInput, TokensOutput: result.TokensOutput}

	var raw map[string][]string
	if err := json.Unmarshal([]byte(stripJSONFences(result.Content)), &raw); err != nil {
		s.logger.Warn("Selector returned unparsable body, failing closed", "error", err)
		return Selection{}, usage, nil
	}

	// Closure filter: the model must not introduce labels absent from the
	// tree. Anything outside the label set is dropped.
	selection := make(Selection)
	for category, organizations := range raw {
		known, ok := labels[category]
		if !ok {
			s.logger.Warn("Selector invented a category, dropping it", "category", category)
			continue
		}
		kept := lo.Filter(organizations, func(org string, _ int) bool {
			return lo.Contains(known, org)
		})
		if len(kept) > 0 {
			selection[category] = lo.Uniq(kept)
		}
	}

	return selection, usage, nil
}

// stripJSONFences removes a markdown code fence if the model wrapped its JSON
// in one despite the instructions.
func stripJSONFences(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
