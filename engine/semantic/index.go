package semantic

import (
	"math"
	"sort"
	"sync"
)

// Index is an in-memory similarity index over hint embeddings. Small
// collections are scanned exactly; once the entry count passes the exact
// threshold the index maintains coarse centroid partitions and probes only
// the closest few, trading a little recall for latency the same way an
// ivfflat index does.
type Index struct {
	mu      sync.RWMutex
	entries map[int32][]float32

	exactThreshold int
	probes         int

	centroids   [][]float32
	partitions  map[int][]int32
	assignments map[int32]int
	builtAt     int
}

// IndexConfig tunes the exact-scan cutoff and partition probing.
type IndexConfig struct {
	// ExactThreshold is the entry count below which search scans exactly.
	ExactThreshold int
	// Probes is the number of partitions inspected per query.
	Probes int
}

// NewIndex creates an empty index. Zero config fields fall back to
// defaults suited for a few thousand entries per instance.
func NewIndex(cfg IndexConfig) *Index {
	if cfg.ExactThreshold <= 0 {
		cfg.ExactThreshold = 2000
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 4
	}
	return &Index{
		entries:        make(map[int32][]float32),
		exactThreshold: cfg.ExactThreshold,
		probes:         cfg.Probes,
		partitions:     make(map[int][]int32),
		assignments:    make(map[int32]int),
	}
}

// IndexResult is a single search hit.
type IndexResult struct {
	ID    int32
	Score float32
}

// Add inserts or replaces the vector for an id. Insertions are incremental;
// partitions are only rebuilt when the collection has doubled since the
// last build, so Add stays cheap on the hot path.
func (x *Index) Add(id int32, vec []float32) {
	if len(vec) == 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.assignments[id]; ok {
		x.partitions[old] = removeID(x.partitions[old], id)
		delete(x.assignments, id)
	}
	x.entries[id] = vec

	if len(x.entries) <= x.exactThreshold {
		return
	}
	if len(x.centroids) == 0 || len(x.entries) >= x.builtAt*2 {
		x.rebuildPartitions()
		return
	}
	p := x.nearestCentroid(vec)
	x.partitions[p] = append(x.partitions[p], id)
	x.assignments[id] = p
}

// Remove drops an id from the index.
func (x *Index) Remove(id int32) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if p, ok := x.assignments[id]; ok {
		x.partitions[p] = removeID(x.partitions[p], id)
		delete(x.assignments, id)
	}
	delete(x.entries, id)
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Search returns up to limit entries ranked by normalized cosine similarity
// to the query, dropping hits below minScore. Below the exact threshold the
// scan is exhaustive and results are exact.
func (x *Index) Search(query []float32, limit int, minScore float32) []IndexResult {
	if len(query) == 0 || limit <= 0 {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	var candidates []int32
	if len(x.entries) <= x.exactThreshold || len(x.centroids) == 0 {
		candidates = make([]int32, 0, len(x.entries))
		for id := range x.entries {
			candidates = append(candidates, id)
		}
	} else {
		for _, p := range x.nearestCentroids(query, x.probes) {
			candidates = append(candidates, x.partitions[p]...)
		}
	}

	results := make([]IndexResult, 0, len(candidates))
	for _, id := range candidates {
		score := NormalizeScore(CosineSimilarity(query, x.entries[id]))
		if score < minScore {
			continue
		}
		results = append(results, IndexResult{ID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// rebuildPartitions re-seeds sqrt(n) centroids from the current entries and
// reassigns everything. Caller holds the write lock.
func (x *Index) rebuildPartitions() {
	n := len(x.entries)
	k := int(math.Sqrt(float64(n)))
	if k < 2 {
		k = 2
	}

	x.centroids = x.centroids[:0]
	for _, vec := range x.entries {
		x.centroids = append(x.centroids, vec)
		if len(x.centroids) == k {
			break
		}
	}

	x.partitions = make(map[int][]int32, k)
	x.assignments = make(map[int32]int, n)
	for id, vec := range x.entries {
		p := x.nearestCentroid(vec)
		x.partitions[p] = append(x.partitions[p], id)
		x.assignments[id] = p
	}
	x.builtAt = n
}

func (x *Index) nearestCentroid(vec []float32) int {
	best, bestScore := 0, float32(-2)
	for i, c := range x.centroids {
		if s := CosineSimilarity(vec, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

func (x *Index) nearestCentroids(vec []float32, n int) []int {
	type scored struct {
		idx   int
		score float32
	}
	all := make([]scored, len(x.centroids))
	for i, c := range x.centroids {
		all[i] = scored{idx: i, score: CosineSimilarity(vec, c)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if n > len(all) {
		n = len(all)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].idx
	}
	return out
}

func removeID(ids []int32, id int32) []int32 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
