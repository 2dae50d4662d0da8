package embedding

import (
	"fmt"
	"log/slog"
	"os"
)

// NewProviderFromEnv builds a Provider chosen by EMBEDDING_PROVIDER
// (default "openai"), mirroring the teacher's createSummarizer switch in
// cmd/worker/main.go.
func NewProviderFromEnv() (Provider, error) {
	providerType := os.Getenv("EMBEDDING_PROVIDER")
	if providerType == "" {
		providerType = "openai"
	}

	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		slog.Info("using openai for embeddings", slog.String("provider", "openai"))
		return NewOpenAIProvider(apiKey), nil
	case "voyage":
		apiKey := os.Getenv("VOYAGE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("VOYAGE_API_KEY is required when EMBEDDING_PROVIDER=voyage")
		}
		slog.Info("using voyage for embeddings", slog.String("provider", "voyage"))
		return NewVoyageProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER %q (expected openai or voyage)", providerType)
	}
}
