package llm

import (
	"context"
	"errors"
)

// ErrRankedChoiceUnsupported is returned by providers that cannot score an
// enumerated answer list by likelihood.
var ErrRankedChoiceUnsupported = errors.New("llm: ranked-choice scoring not supported by this provider")

// Provider is an inference backend for benchmark evaluation. GenerateUntil
// serves generation tasks; ScoreChoices serves ranked-choice tasks,
// returning one log-likelihood-derived score per choice, in choice order.
type Provider interface {
	Name() string
	GenerateUntil(ctx context.Context, req *GenerationRequest) (string, error)
	ScoreChoices(ctx context.Context, req *ChoiceRequest) ([]float64, error)
}

// GenerationRequest asks for a free-text completion of Prompt that stops at
// the first stop sequence. MaxTokens <= 0 means provider default.
type GenerationRequest struct {
	Prompt        string
	StopSequences []string
	MaxTokens     int
	Temperature   float64
}

// ChoiceRequest asks for a likelihood score of each candidate continuation
// of Prompt.
type ChoiceRequest struct {
	Prompt  string
	Choices []string
}
