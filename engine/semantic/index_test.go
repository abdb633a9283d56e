package semantic

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexExactSearch(t *testing.T) {
	idx := NewIndex(IndexConfig{ExactThreshold: 100})

	idx.Add(1, []float32{1, 0, 0})
	idx.Add(2, []float32{0, 1, 0})
	idx.Add(3, []float32{0.9, 0.1, 0})

	results := idx.Search([]float32{1, 0, 0}, 2, 0)
	require.Len(t, results, 2)
	assert.Equal(t, int32(1), results[0].ID)
	assert.Equal(t, int32(3), results[1].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestIndexMinScoreFilter(t *testing.T) {
	idx := NewIndex(IndexConfig{})
	idx.Add(1, []float32{1, 0})
	idx.Add(2, []float32{0, 1})

	results := idx.Search([]float32{1, 0}, 10, 0.75)
	require.Len(t, results, 1)
	assert.Equal(t, int32(1), results[0].ID)
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex(IndexConfig{})
	idx.Add(1, []float32{1, 0})
	idx.Add(2, []float32{0.9, 0.1})
	require.Equal(t, 2, idx.Len())

	idx.Remove(1)
	assert.Equal(t, 1, idx.Len())

	results := idx.Search([]float32{1, 0}, 10, 0)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), results[0].ID)
}

func TestIndexAddReplacesVector(t *testing.T) {
	idx := NewIndex(IndexConfig{})
	idx.Add(1, []float32{1, 0})
	idx.Add(1, []float32{0, 1})
	require.Equal(t, 1, idx.Len())

	results := idx.Search([]float32{0, 1}, 1, 0)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestIndexPartitionedSearchRecall(t *testing.T) {
	// Force partitioning with a tiny exact threshold, then verify the
	// probed search still finds near-duplicates of the query.
	idx := NewIndex(IndexConfig{ExactThreshold: 10, Probes: 4})

	rng := rand.New(rand.NewSource(42))
	dim := 8
	for i := int32(1); i <= 200; i++ {
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = rng.Float32()*2 - 1
		}
		idx.Add(i, normalize(vec))
	}

	query := make([]float32, dim)
	for d := range query {
		query[d] = rng.Float32()*2 - 1
	}
	query = normalize(query)
	// Plant a near-duplicate the search must find.
	target := make([]float32, dim)
	copy(target, query)
	target[0] += 0.01
	idx.Add(999, normalize(target))

	results := idx.Search(query, 5, 0)
	require.NotEmpty(t, results)
	found := false
	for _, r := range results {
		if r.ID == 999 {
			found = true
		}
	}
	assert.True(t, found, fmt.Sprintf("expected id 999 in results, got %+v", results))
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
