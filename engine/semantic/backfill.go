package semantic

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// backfillStore is the slice of the store the backfill job touches.
type backfillStore interface {
	ListHints(ctx context.Context, find *store.FindHint) ([]*store.Hint, error)
	UpdateHintEmbedding(ctx context.Context, id int32, embedding []float32) error
}

// Backfiller fills in embeddings for hints whose vector is still missing.
// Hint creation never blocks on the embedding provider; this job sweeps the
// gap asynchronously. A hint that fails to embed keeps its NULL vector and
// is retried on the next sweep.
type Backfiller struct {
	store    backfillStore
	embedder EmbeddingService

	batchSize int
	interval  time.Duration
}

// NewBackfiller creates a backfill job. A non-positive batch size defaults
// to 32, a non-positive interval to 5 minutes.
func NewBackfiller(s backfillStore, embedder EmbeddingService, batchSize int, interval time.Duration) *Backfiller {
	if batchSize <= 0 {
		batchSize = 32
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Backfiller{
		store:     s,
		embedder:  embedder,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (b *Backfiller) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if n, err := b.Sweep(ctx); err != nil {
			slog.Error("embedding backfill sweep failed", "error", err)
		} else if n > 0 {
			slog.Info("embedding backfill sweep completed", "embedded", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep embeds one batch of pending hints and returns how many vectors
// were persisted.
func (b *Backfiller) Sweep(ctx context.Context) (int, error) {
	hasEmbedding := false
	hints, err := b.store.ListHints(ctx, &store.FindHint{
		HasEmbedding: &hasEmbedding,
		Limit:        b.batchSize,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to list pending hints")
	}
	if len(hints) == 0 {
		return 0, nil
	}

	texts := make([]string, len(hints))
	for i, hint := range hints {
		texts[i] = hint.Text
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed hint batch")
	}
	if len(vectors) != len(hints) {
		return 0, errors.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(hints))
	}

	embedded := 0
	for i, hint := range hints {
		if err := b.store.UpdateHintEmbedding(ctx, hint.ID, vectors[i]); err != nil {
			slog.Warn("failed to persist hint embedding", "hint", hint.ID, "error", err)
			continue
		}
		embedded++
	}
	return embedded, nil
}
