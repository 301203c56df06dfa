package knowledge

import (
	"github.com/pkg/errors"
)

// ErrInsufficientData is the normal terminal state for queries the engine
// cannot answer: empty tree, empty selection, empty aggregation, or an
// unparsable LLM body. It is expected and frequent, not a fault; callers map
// it to a neutral "Not enough data" response.
var ErrInsufficientData = errors.New("not enough data")

// TransportError marks a network/timeout/auth failure talking to the LLM
// provider. Never retried here; retry policy belongs to the provider client.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "llm transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StoreError marks the keypoint store or email resolver being unavailable.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "upstream store: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
