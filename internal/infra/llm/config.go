package llm

import (
	"fmt"
	"log/slog"
	"os"
)

// NewProviderFromEnv builds a Provider chosen by NEUTRALIZER_PROVIDER
// (default "openai") and NEUTRALIZER_MODEL (provider-specific default if
// unset), mirroring the teacher's createSummarizer switch and C5's
// embedding.NewProviderFromEnv.
func NewProviderFromEnv() (Provider, error) {
	providerType := os.Getenv("NEUTRALIZER_PROVIDER")
	if providerType == "" {
		providerType = "openai"
	}
	model := os.Getenv("NEUTRALIZER_MODEL")

	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when NEUTRALIZER_PROVIDER=openai")
		}
		slog.Info("using openai for neutralization", slog.String("provider", "openai"))
		return NewOpenAIProvider(apiKey, model), nil
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when NEUTRALIZER_PROVIDER=anthropic")
		}
		slog.Info("using anthropic for neutralization", slog.String("provider", "anthropic"))
		return NewAnthropicProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("invalid NEUTRALIZER_PROVIDER %q (expected openai or anthropic)", providerType)
	}
}
