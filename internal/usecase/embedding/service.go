package embedding

import (
	"context"
	"log/slog"
	"sync"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"

	"golang.org/x/sync/errgroup"
)

// PersistBatchSize bounds concurrent PutEmbedding calls per encode pass
// (§4.5: "re-batched into ≤50 ops because of document size").
const PersistBatchSize = 50

// EncodeAndPersist splits articles into those that already carry an
// embedding and those that don't, encodes the latter in micro-batches of
// at most MaxBatchInputs, and writes the results back through store.
// Articles a provider fails to embed are assigned the zero vector so they
// still participate in grouping (as likely outliers) rather than being
// dropped.
func EncodeAndPersist(ctx context.Context, store repository.ArticleStore, provider Provider, articles []*entity.Article) error {
	var needs []*entity.Article
	for _, a := range articles {
		if !a.HasEmbedding() {
			needs = append(needs, a)
		}
	}
	if len(needs) == 0 {
		return nil
	}

	for start := 0; start < len(needs); start += MaxBatchInputs {
		end := start + MaxBatchInputs
		if end > len(needs) {
			end = len(needs)
		}
		encodeBatch(ctx, provider, needs[start:end])
	}

	return persistBatch(ctx, store, needs)
}

// encodeBatch encodes a single micro-batch in place, falling back to the
// zero vector for every article in the batch on provider failure.
func encodeBatch(ctx context.Context, provider Provider, batch []*entity.Article) {
	inputs := make([]string, len(batch))
	for i, a := range batch {
		inputs[i] = a.EmbeddingInput()
	}

	vectors, err := provider.Encode(ctx, inputs)
	if err != nil {
		slog.Warn("embedding batch failed, assigning zero vectors",
			slog.Int("batch_size", len(batch)), slog.Any("error", err))
		for _, a := range batch {
			a.Embedding = make([]float32, Dimension)
		}
		return
	}

	for i, a := range batch {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			a.Embedding = make([]float32, Dimension)
			continue
		}
		a.Embedding = vectors[i]
	}
}

// persistBatch writes every article's embedding back to the store, bounded
// to PersistBatchSize concurrent PutEmbedding calls.
func persistBatch(ctx context.Context, store repository.ArticleStore, articles []*entity.Article) error {
	sem := make(chan struct{}, PersistBatchSize)
	var mu sync.Mutex
	var firstErr error

	eg, egCtx := errgroup.WithContext(ctx)
	for _, article := range articles {
		a := article
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := store.PutEmbedding(egCtx, a.ArticleID, a.Embedding); err != nil {
				slog.Warn("put_embedding failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return firstErr
}
