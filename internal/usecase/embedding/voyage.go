package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// voyageEndpoint is Voyage AI's REST embeddings endpoint. There is no
// official Go SDK for Voyage in the dependency pack, so this client is a
// thin net/http wrapper modeled after anthropic-sdk-go's request/response
// plumbing (both providers are REST+JSON over a single POST endpoint).
const voyageEndpoint = "https://api.voyageai.com/v1/embeddings"

// VoyageProvider embeds text via Voyage AI's embeddings API.
type VoyageProvider struct {
	client *http.Client
	apiKey string
	model  string
}

func NewVoyageProvider(apiKey string) *VoyageProvider {
	return &VoyageProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		apiKey: apiKey,
		model:  "voyage-3-lite",
	}
}

type voyageRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

func (p *VoyageProvider) Encode(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > MaxBatchInputs {
		return nil, fmt.Errorf("embedding: batch of %d exceeds max %d", len(inputs), MaxBatchInputs)
	}

	body, err := json.Marshal(voyageRequest{Input: inputs, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("voyage: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, voyageEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("voyage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voyage: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voyage: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voyage: http %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed voyageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("voyage: unmarshal response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("voyage: api error: %s", parsed.Error)
	}
	if len(parsed.Data) != len(inputs) {
		return nil, fmt.Errorf("voyage: expected %d vectors, got %d", len(inputs), len(parsed.Data))
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range parsed.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
