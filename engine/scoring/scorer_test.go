package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

type mockScorerStore struct {
	profile   *store.VaultProfile
	weights   *store.PreferenceWeights
	hintHits  map[string][]*store.HintWithScore
	usedHints []int32
}

func (m *mockScorerStore) GetVaultProfile(_ context.Context, vaultID int32) (*store.VaultProfile, error) {
	return m.profile, nil
}

func (m *mockScorerStore) GetPreferenceWeights(_ context.Context, find *store.FindPreferenceWeights) (*store.PreferenceWeights, error) {
	return m.weights, nil
}

func (m *mockScorerStore) HintVectorSearch(_ context.Context, opts *store.HintVectorSearchOptions) ([]*store.HintWithScore, error) {
	if m.hintHits == nil || len(opts.Vector) == 0 {
		return nil, nil
	}
	// Keyed by the first vector component to keep the fake simple.
	key := ""
	if opts.Vector[0] == 1 {
		key = "boosted"
	}
	return m.hintHits[key], nil
}

func (m *mockScorerStore) MarkHintsUsed(_ context.Context, ids []int32) error {
	m.usedHints = append(m.usedHints, ids...)
	return nil
}

func baseProfile() *store.VaultProfile {
	return &store.VaultProfile{
		VaultID:   1,
		UserID:    1,
		Likes:     []store.InterestCategory{store.InterestCooking, store.InterestTravel},
		Vibes:     []store.VibeTagValue{store.VibeCozy},
		Primary:   store.LoveQualityTime,
		Secondary: store.LoveReceivingGifts,
	}
}

func TestRankInterestScoreScenario(t *testing.T) {
	// likes = {cooking, travel}, weight(cooking) = 1.4, weight(travel) = 1.0.
	// A matches cooking only, B matches both; B must outscore and outrank A.
	s := &mockScorerStore{
		profile: baseProfile(),
		weights: &store.PreferenceWeights{
			UserID:    1,
			Interests: map[string]float64{"cooking": 1.4, "travel": 1.0},
		},
	}
	scorer := NewScorer(s)

	candidates := []*Candidate{
		{UID: "a", Kind: store.KindGift, Interests: []string{"cooking"}},
		{UID: "b", Kind: store.KindGift, Interests: []string{"travel", "cooking"}},
	}
	ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "b", ranked[0].Candidate.UID)
	assert.Equal(t, "a", ranked[1].Candidate.UID)
	assert.InDelta(t, 0.7, ranked[1].InterestScore, 1e-9)
	// (1.4 + 1.0) / 2 = 1.2, clamped to 1.
	assert.InDelta(t, 1.0, ranked[0].InterestScore, 1e-9)
	assert.Greater(t, ranked[0].InterestScore, ranked[1].InterestScore)
}

func TestRankDislikeVeto(t *testing.T) {
	profile := baseProfile()
	profile.Dislikes = []store.InterestCategory{store.InterestGaming}
	s := &mockScorerStore{profile: profile}
	scorer := NewScorer(s)

	candidates := []*Candidate{
		{UID: "good", Interests: []string{"cooking"}},
		{UID: "vetoed", Interests: []string{"cooking", "travel", "gaming"}},
	}
	ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "good", ranked[0].Candidate.UID)
}

func TestRankLoveLanguageScore(t *testing.T) {
	s := &mockScorerStore{profile: baseProfile()}
	scorer := NewScorer(s)

	candidates := []*Candidate{
		{UID: "primary", LoveLanguages: []string{"quality_time"}},
		{UID: "secondary", LoveLanguages: []string{"receiving_gifts"}},
		{UID: "both", LoveLanguages: []string{"quality_time", "receiving_gifts"}},
		{UID: "neither", LoveLanguages: []string{"physical_touch"}},
	}
	ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 4)

	byUID := map[string]*ScoredCandidate{}
	for _, sc := range ranked {
		byUID[sc.Candidate.UID] = sc
	}
	assert.InDelta(t, 1.0/1.5, byUID["primary"].LoveLanguageScore, 1e-9)
	assert.InDelta(t, 0.5/1.5, byUID["secondary"].LoveLanguageScore, 1e-9)
	assert.InDelta(t, 1.0, byUID["both"].LoveLanguageScore, 1e-9)
	assert.Zero(t, byUID["neither"].LoveLanguageScore)
}

func TestRankCompositeCoefficients(t *testing.T) {
	s := &mockScorerStore{profile: baseProfile()}
	scorer := NewScorer(s)

	// Full match on every dimension with neutral weights.
	candidates := []*Candidate{{
		UID:           "full",
		Interests:     []string{"cooking", "travel"},
		Vibes:         []string{"cozy"},
		LoveLanguages: []string{"quality_time", "receiving_gifts"},
	}}
	ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.InDelta(t, 0.40*1.0+0.35*1.0+0.25*1.0, ranked[0].CompositeScore, 1e-9)
}

func TestRankContextualHintBoost(t *testing.T) {
	s := &mockScorerStore{
		profile: baseProfile(),
		hintHits: map[string][]*store.HintWithScore{
			"boosted": {
				{Hint: &store.Hint{ID: 7}, Score: 0.91},
				{Hint: &store.Hint{ID: 9}, Score: 0.78},
			},
		},
	}
	scorer := NewScorer(s)

	candidates := []*Candidate{
		{UID: "boosted", Interests: []string{"cooking"}, Embedding: []float32{1, 0}},
		{UID: "plain", Interests: []string{"cooking"}, Embedding: []float32{0, 1}},
	}
	ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "boosted", ranked[0].Candidate.UID)
	assert.Equal(t, []int32{7, 9}, ranked[0].HintIDs)
	assert.InDelta(t, ranked[1].CompositeScore+0.15, ranked[0].CompositeScore, 1e-9)
	assert.Empty(t, ranked[1].HintIDs)
	// Ranking alone never consumes hints.
	assert.Empty(t, s.usedHints)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	s := &mockScorerStore{profile: baseProfile()}
	scorer := NewScorer(s)

	candidates := []*Candidate{
		{UID: "zed", Interests: []string{"cooking"}},
		{UID: "abc", Interests: []string{"cooking"}},
	}
	for i := 0; i < 5; i++ {
		ranked, err := scorer.Rank(context.Background(), 1, candidates, nil)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, "abc", ranked[0].Candidate.UID)
		assert.Equal(t, "zed", ranked[1].Candidate.UID)
	}
}

func TestRankVibeOverrideIsOneShot(t *testing.T) {
	s := &mockScorerStore{profile: baseProfile()}
	scorer := NewScorer(s)

	candidates := []*Candidate{{UID: "c", Vibes: []string{"adventurous"}}}

	overridden, err := scorer.Rank(context.Background(), 1, candidates, &RankOptions{
		VibeOverride: []store.VibeTagValue{store.VibeAdventurous},
	})
	require.NoError(t, err)
	require.Len(t, overridden, 1)
	assert.InDelta(t, 1.0, overridden[0].VibeScore, 1e-9)

	// A subsequent call without the override falls back to stored vibes.
	plain, err := scorer.Rank(context.Background(), 1, candidates, nil)
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Zero(t, plain[0].VibeScore)
}

func TestConfirmSelectionMarksHintsUsed(t *testing.T) {
	s := &mockScorerStore{profile: baseProfile()}
	scorer := NewScorer(s)

	err := scorer.ConfirmSelection(context.Background(), &store.Recommendation{
		ID:      1,
		HintIDs: []int32{7, 9},
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 9}, s.usedHints)

	err = scorer.ConfirmSelection(context.Background(), &store.Recommendation{ID: 2})
	require.NoError(t, err)
	assert.Len(t, s.usedHints, 2)
}
