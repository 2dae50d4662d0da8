// Package embedding implements the embedding stage (C5): turning article
// text into vectors via a pluggable provider, and the async, non-blocking
// hook the fetch pipeline calls after persisting a batch of articles.
package embedding

import "context"

// Dimension is the fixed embedding width the store schema assumes
// (internal/infra/db.EmbeddingDimension).
const Dimension = 1536

// MaxBatchInputs bounds a single provider call (§4.5: micro-batches ≤256).
const MaxBatchInputs = 256

// Provider turns a batch of input strings into embedding vectors, one per
// input, in the same order. Implementations must tolerate batches up to
// MaxBatchInputs; callers are responsible for splitting larger sets.
type Provider interface {
	Encode(ctx context.Context, inputs []string) ([][]float32, error)
}
