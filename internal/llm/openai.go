package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// maxStopSequences is the OpenAI API limit on stop strings per request.
const maxStopSequences = 4

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string, baseURL string, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) GenerateUntil(ctx context.Context, req *GenerationRequest) (string, error) {
	if p == nil || p.client == nil {
		return "", errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return "", errors.New("llm: openai: nil context")
	}
	if req == nil {
		return "", errors.New("llm: openai: nil request")
	}

	r := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		Temperature: float32(req.Temperature),
		Stop:        clampStops(req.StopSequences),
	}

	resp, err := p.client.CreateChatCompletion(ctx, r)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: openai: empty choices")
	}

	// The API stops before emitting a stop sequence, but cut defensively
	// in case a sequence was dropped by clampStops.
	return truncateAtStops(resp.Choices[0].Message.Content, req.StopSequences), nil
}

// ScoreChoices scores each choice as the sum of its token log-probabilities
// when echoed after the prompt, via the legacy completions endpoint.
func (p *OpenAIProvider) ScoreChoices(ctx context.Context, req *ChoiceRequest) ([]float64, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil || len(req.Choices) == 0 {
		return nil, errors.New("llm: openai: no choices to score")
	}

	out := make([]float64, len(req.Choices))
	for i, choice := range req.Choices {
		score, err := p.scoreEcho(ctx, req.Prompt, choice)
		if err != nil {
			return nil, fmt.Errorf("llm: openai: score choice %d: %w", i, err)
		}
		out[i] = score
	}
	return out, nil
}

func (p *OpenAIProvider) scoreEcho(ctx context.Context, prompt, choice string) (float64, error) {
	resp, err := p.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       p.model,
		Prompt:      prompt + choice,
		MaxTokens:   1,
		Temperature: 0,
		LogProbs:    1,
		Echo:        true,
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Choices) == 0 {
		return 0, errors.New("empty choices")
	}

	lp := resp.Choices[0].LogProbs
	if len(lp.TokenLogprobs) != len(lp.TextOffset) {
		return 0, errors.New("malformed logprobs")
	}

	// Sum only the tokens belonging to the choice continuation.
	boundary := len(prompt)
	sum := 0.0
	for j, offset := range lp.TextOffset {
		if offset < boundary {
			continue
		}
		sum += float64(lp.TokenLogprobs[j])
	}
	return sum, nil
}

func clampStops(stops []string) []string {
	out := make([]string, 0, maxStopSequences)
	for _, s := range stops {
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxStopSequences {
			break
		}
	}
	return out
}
