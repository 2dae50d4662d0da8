package embedding

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// embedTimeout bounds the detached goroutine's work, independent of the
// caller's own context lifetime.
const embedTimeout = 2 * time.Minute

var (
	pendingTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embedding_pending_total",
			Help: "Number of pending batch embedding operations",
		},
	)
	processedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_processed_total",
			Help: "Total batch embedding operations processed",
		},
		[]string{"status"},
	)
)

// Hook provides the asynchronous embedding entry point the fetch pipeline
// calls right after persisting a batch of new articles, ported from the
// teacher's single-article EmbeddingHook and generalized to a batch.
type Hook struct {
	provider Provider
	store    repository.ArticleStore
	enabled  bool
}

func NewHook(provider Provider, store repository.ArticleStore, enabled bool) *Hook {
	return &Hook{provider: provider, store: store, enabled: enabled}
}

// EmbedArticlesAsync spawns a goroutine to encode and persist embeddings
// for articles without blocking the caller. Failures are logged, never
// propagated: a missing embedding only delays a group's formation, it
// never blocks ingestion.
func (h *Hook) EmbedArticlesAsync(articles []*entity.Article) {
	if !h.enabled || len(articles) == 0 {
		return
	}
	go h.run(articles)
}

func (h *Hook) run(articles []*entity.Article) {
	pendingTotal.Inc()
	completed := false
	defer func() {
		if !completed {
			pendingTotal.Dec()
			processedTotal.WithLabelValues("panic").Inc()
		}
		if r := recover(); r != nil {
			slog.Error("panic in embedding hook",
				slog.Int("batch_size", len(articles)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
	defer cancel()

	start := time.Now()
	err := EncodeAndPersist(ctx, h.store, h.provider, articles)
	duration := time.Since(start)

	completed = true
	pendingTotal.Dec()
	if err != nil {
		processedTotal.WithLabelValues("failure").Inc()
		slog.Warn("batch embedding completed with errors",
			slog.Int("batch_size", len(articles)), slog.Duration("duration", duration), slog.Any("error", err))
		return
	}
	processedTotal.WithLabelValues("success").Inc()
	slog.Info("batch embedding completed",
		slog.Int("batch_size", len(articles)), slog.Duration("duration", duration))
}
