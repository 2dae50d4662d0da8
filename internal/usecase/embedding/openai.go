package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"neutralnews/internal/resilience/circuitbreaker"
	"neutralnews/internal/resilience/retry"
)

// OpenAIProvider embeds text via OpenAI's text-embedding-3-small model,
// wrapped in the same circuit-breaker/retry pattern the teacher's
// summarizer uses for chat completions.
type OpenAIProvider struct {
	client         *openai.Client
	model          openai.EmbeddingModel
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client:         openai.NewClient(apiKey),
		model:          openai.SmallEmbedding3,
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
	}
}

func (p *OpenAIProvider) Encode(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > MaxBatchInputs {
		return nil, fmt.Errorf("embedding: batch of %d exceeds max %d", len(inputs), MaxBatchInputs)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var vectors [][]float32
	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doEncode(ctx, inputs)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai embeddings circuit breaker open",
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("openai embeddings unavailable: circuit breaker open")
			}
			return err
		}
		vectors = result.([][]float32)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai encode failed after retries: %w", retryErr)
	}
	return vectors, nil
}

func (p *OpenAIProvider) doEncode(ctx context.Context, inputs []string) (interface{}, error) {
	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: p.model,
	})
	duration := time.Since(start)
	if err != nil {
		slog.ErrorContext(ctx, "openai embeddings failed",
			slog.Int("batch_size", len(inputs)), slog.Duration("duration", duration), slog.Any("error", err))
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(inputs), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	slog.DebugContext(ctx, "openai embeddings completed",
		slog.Int("batch_size", len(inputs)), slog.Duration("duration", duration))
	return vectors, nil
}
