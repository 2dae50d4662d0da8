package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"neutralnews/internal/resilience/circuitbreaker"
)

// DefaultAnthropicModel is used when NEUTRALIZER_MODEL is unset and
// NEUTRALIZER_PROVIDER=anthropic.
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

const anthropicMaxTokens = 2048

// AnthropicProvider implements Provider against the Messages API. Claude
// has no first-class JSON response mode in this SDK, so strict JSON output
// is enforced entirely through SystemPrompt's instructions.
type AnthropicProvider struct {
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewAnthropicProvider builds a provider for the given API key and model;
// an empty model falls back to DefaultAnthropicModel.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicProvider{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
	}
}

// Complete issues a single Messages API call wrapped in a circuit breaker.
// It does not retry: the caller owns the retry/backoff/cooldown policy.
func (p *AnthropicProvider) Complete(ctx context.Context, system, user string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
		message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(p.model),
			MaxTokens: anthropicMaxTokens,
			System:    []anthropic.TextBlockParam{{Text: system}},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic api error: %w", err)
		}
		if len(message.Content) == 0 {
			return nil, fmt.Errorf("anthropic api returned empty response")
		}
		textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
		if !ok {
			return nil, fmt.Errorf("anthropic api returned unexpected response type")
		}
		return json.RawMessage(textBlock.Text), nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("anthropic neutralizer circuit breaker open, request rejected",
				slog.String("state", p.circuitBreaker.State().String()))
			return nil, fmt.Errorf("anthropic api unavailable: circuit breaker open")
		}
		return nil, err
	}
	return result.(json.RawMessage), nil
}
