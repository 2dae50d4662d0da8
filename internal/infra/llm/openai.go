package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"neutralnews/internal/resilience/circuitbreaker"
)

// DefaultOpenAIModel matches the original's gpt-4o-mini choice.
const DefaultOpenAIModel = "gpt-4o-mini"

// openAITemperature is fixed per §4.7; the neutralizer wants low-variance,
// close-to-deterministic synthesis rather than creative phrasing.
const openAITemperature = 0.3

// OpenAIProvider implements Provider against the Chat Completions API in
// JSON object mode.
type OpenAIProvider struct {
	client         *openai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewOpenAIProvider builds a provider for the given API key and model; an
// empty model falls back to DefaultOpenAIModel.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client:         openai.NewClient(apiKey),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
	}
}

// Complete issues a single chat completion request with JSON object mode
// and the fixed temperature, wrapped in a circuit breaker. It does not
// retry: the caller owns the retry/backoff/cooldown policy.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Temperature: openAITemperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai api returned empty response")
		}
		return json.RawMessage(resp.Choices[0].Message.Content), nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("openai neutralizer circuit breaker open, request rejected",
				slog.String("state", p.circuitBreaker.State().String()))
			return nil, fmt.Errorf("openai api unavailable: circuit breaker open")
		}
		return nil, err
	}
	return result.(json.RawMessage), nil
}
