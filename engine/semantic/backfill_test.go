package semantic

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

type mockBackfillStore struct {
	hints    []*store.Hint
	updated  map[int32][]float32
	failIDs  map[int32]bool
	listErr  error
	listCall int
}

func newMockBackfillStore(hints ...*store.Hint) *mockBackfillStore {
	return &mockBackfillStore{
		hints:   hints,
		updated: map[int32][]float32{},
		failIDs: map[int32]bool{},
	}
}

func (m *mockBackfillStore) ListHints(_ context.Context, find *store.FindHint) ([]*store.Hint, error) {
	m.listCall++
	if m.listErr != nil {
		return nil, m.listErr
	}
	pending := []*store.Hint{}
	for _, hint := range m.hints {
		if find.HasEmbedding != nil && *find.HasEmbedding == (hint.Embedding == nil) {
			continue
		}
		if _, done := m.updated[hint.ID]; done {
			continue
		}
		pending = append(pending, hint)
		if find.Limit > 0 && len(pending) == find.Limit {
			break
		}
	}
	return pending, nil
}

func (m *mockBackfillStore) UpdateHintEmbedding(_ context.Context, id int32, embedding []float32) error {
	if m.failIDs[id] {
		return errors.New("write failed")
	}
	m.updated[id] = embedding
	return nil
}

type mockEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := m.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = []float32{0.1, 0.2}
		}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 2 }

func TestBackfillerSweep(t *testing.T) {
	ctx := context.Background()
	s := newMockBackfillStore(
		&store.Hint{ID: 1, Text: "loves jazz vinyl"},
		&store.Hint{ID: 2, Text: "wants to try pottery"},
		&store.Hint{ID: 3, Text: "done already", Embedding: []float32{1, 0}},
	)
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"loves jazz vinyl":     {0.5, 0.5},
		"wants to try pottery": {0.2, 0.8},
	}}

	b := NewBackfiller(s, embedder, 10, 0)
	n, err := b.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{0.5, 0.5}, s.updated[1])
	assert.Equal(t, []float32{0.2, 0.8}, s.updated[2])
	assert.NotContains(t, s.updated, int32(3))
}

func TestBackfillerSweepEmpty(t *testing.T) {
	s := newMockBackfillStore()
	b := NewBackfiller(s, &mockEmbedder{}, 10, 0)

	n, err := b.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackfillerSweepEmbedderFailure(t *testing.T) {
	s := newMockBackfillStore(&store.Hint{ID: 1, Text: "anything"})
	b := NewBackfiller(s, &mockEmbedder{err: errors.New("provider down")}, 10, 0)

	n, err := b.Sweep(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	// Vector stays missing; the next sweep retries it.
	assert.Empty(t, s.updated)
}

func TestBackfillerSweepPartialWriteFailure(t *testing.T) {
	s := newMockBackfillStore(
		&store.Hint{ID: 1, Text: "a"},
		&store.Hint{ID: 2, Text: "b"},
	)
	s.failIDs[1] = true
	b := NewBackfiller(s, &mockEmbedder{}, 10, 0)

	n, err := b.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, s.updated, int32(2))
}
