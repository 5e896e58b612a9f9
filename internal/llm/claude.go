package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

type ClaudeProvider struct {
	client anthropic.Client
	model  string
}

func NewClaudeProvider(apiKey string, baseURL string, model string) *ClaudeProvider {
	opts := make([]option.RequestOption, 0, 2)
	if v := strings.TrimSpace(apiKey); v != "" {
		opts = append(opts, option.WithAPIKey(v))
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultClaudeModel
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		model:  m,
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) GenerateUntil(ctx context.Context, req *GenerationRequest) (string, error) {
	if p == nil {
		return "", errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return "", errors.New("llm: claude: nil context")
	}
	if req == nil {
		return "", errors.New("llm: claude: nil request")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(clampMaxTokens(req.MaxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if stops := clampStops(req.StopSequences); len(stops) > 0 {
		params.StopSequences = stops
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return truncateAtStops(sb.String(), req.StopSequences), nil
}

// ScoreChoices is unsupported: the Messages API exposes no per-token
// likelihoods to rank candidate answers with.
func (p *ClaudeProvider) ScoreChoices(ctx context.Context, req *ChoiceRequest) ([]float64, error) {
	return nil, ErrRankedChoiceUnsupported
}
