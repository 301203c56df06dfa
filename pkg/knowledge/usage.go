package knowledge

// TokenUsage accumulates the prompt/completion token counts of every LLM call
// made for one query.
type TokenUsage struct {
	TokensInput  int
	TokensOutput int
}

func (u *TokenUsage) Add(other TokenUsage) {
	u.TokensInput += other.TokensInput
	u.TokensOutput += other.TokensOutput
}
