package knowledge

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/aomail-ai/knowledge/pkg/ai"
)

type KeypointStore interface {
	GetKeypointsForUser(ctx context.Context, userID string) ([]Keypoint, error)
}

type EmailResolver interface {
	ResolveProviderIDs(ctx context.Context, userID string, providerIDs []string) ([]int64, error)
}

type PreferenceStore interface {
	GetLanguage(ctx context.Context, userID string) (string, error)
}

type UsageRecorder interface {
	RecordUsage(ctx context.Context, userID string, usage TokenUsage) error
}

type Config struct {
	SelectionModel  string
	AnswerModel     string
	LLMTimeout      time.Duration
	DefaultLanguage string
}

// SearchResult is what a completed query returns. Transient; the HTTP layer
// serializes it, nothing persists it.
type SearchResult struct {
	Sure   bool       `json:"sure"`
	Answer string     `json:"answer"`
	IDs    []int64    `json:"ids"`
	Usage  TokenUsage `json:"-"`
}

// Engine runs the whole pipeline for one question: build tree, select
// branches, aggregate keypoints, synthesize the answer, attach provenance.
// Strictly sequential, no retries; each query builds its own tree from a
// fresh read so concurrent queries share no state.
type Engine struct {
	store       KeypointStore
	resolver    EmailResolver
	preferences PreferenceStore
	usage       UsageRecorder
	selector    *Selector
	synthesizer *Synthesizer
	cfg         Config
	logger      *log.Logger
}

func NewEngine(
	store KeypointStore,
	resolver EmailResolver,
	preferences PreferenceStore,
	usage UsageRecorder,
	llm ai.Completion,
	cfg Config,
	logger *log.Logger,
) *Engine {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "english"
	}
	return &Engine{
		store:       store,
		resolver:    resolver,
		preferences: preferences,
		usage:       usage,
		selector:    NewSelector(llm, cfg.SelectionModel, logger),
		synthesizer: NewSynthesizer(llm, cfg.AnswerModel, logger),
		cfg:         cfg,
		logger:      logger,
	}
}

// CanAnswer is the cheap pre-check: it reports whether the user has any
// ingested knowledge at all, without spending an LLM call.
func (e *Engine) CanAnswer(ctx context.Context, userID string) (bool, error) {
	keypoints, err := e.store.GetKeypointsForUser(ctx, userID)
	if err != nil {
		return false, &StoreError{Err: err}
	}
	return !BuildTree(keypoints).Empty(), nil
}

// Answer runs the query state machine. Terminal branches: ErrInsufficientData
// when the tree, selection, or aggregation is empty; otherwise the result or
// a transport/store error. Token usage of both LLM call sites is recorded
// even when the query ends without an answer.
func (e *Engine) Answer(ctx context.Context, userID string, question string, language string) (*SearchResult, error) {
	queryID := uuid.NewString()
	logger := e.logger.With("query_id", queryID, "user_id", userID)

	keypoints, err := e.store.GetKeypointsForUser(ctx, userID)
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	tree := BuildTree(keypoints)
	if tree.Empty() {
		logger.Debug("Knowledge tree is empty")
		return nil, ErrInsufficientData
	}

	total := TokenUsage{}
	defer func() {
		if total == (TokenUsage{}) {
			return
		}
		if err := e.usage.RecordUsage(ctx, userID, total); err != nil {
			logger.Error("Failed to record token usage", "error", err)
		}
	}()

	selectCtx, cancel := e.callContext(ctx)
	selection, selectUsage, err := e.selector.Select(selectCtx, tree, question)
	cancel()
	total.Add(selectUsage)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		logger.Debug("Selector pruned every branch")
		return nil, ErrInsufficientData
	}

	aggregated := Aggregate(selection, tree)
	if aggregated.Empty() {
		logger.Debug("Selected branches hold no keypoints")
		return nil, ErrInsufficientData
	}

	if language == "" {
		language, err = e.preferences.GetLanguage(ctx, userID)
		if err != nil {
			logger.Warn("Failed to load language preference", "error", err)
			language = e.cfg.DefaultLanguage
		}
	}

	answerCtx, cancel := e.callContext(ctx)
	answer, sure, answerUsage, err := e.synthesizer.Synthesize(answerCtx, aggregated, question, language)
	cancel()
	total.Add(answerUsage)
	if err != nil {
		return nil, err
	}

	providerIDs := tree.Provenance(selection)
	ids, err := e.resolver.ResolveProviderIDs(ctx, userID, providerIDs)
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	logger.Info("Answered knowledge query",
		"sure", sure,
		"emails", len(ids),
		"tokens_input", total.TokensInput,
		"tokens_output", total.TokensOutput,
	)

	return &SearchResult{
		Sure:   sure,
		Answer: answer,
		IDs:    ids,
		Usage:  total,
	}, nil
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.LLMTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.LLMTimeout)
}
