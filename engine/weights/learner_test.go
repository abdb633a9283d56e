package weights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

type mockLearnerStore struct {
	feedback []*store.FeedbackWithRecommendation
	current  *store.PreferenceWeights
	written  *store.UpsertPreferenceWeights
	stale    bool
}

func (m *mockLearnerStore) ListFeedbackWithRecommendations(_ context.Context, find *store.FindFeedback) ([]*store.FeedbackWithRecommendation, error) {
	return m.feedback, nil
}

func (m *mockLearnerStore) GetPreferenceWeights(_ context.Context, find *store.FindPreferenceWeights) (*store.PreferenceWeights, error) {
	return m.current, nil
}

func (m *mockLearnerStore) UpsertPreferenceWeights(_ context.Context, upsert *store.UpsertPreferenceWeights) (*store.PreferenceWeights, error) {
	if m.stale {
		return nil, store.ErrStaleWeights
	}
	m.written = upsert
	return &store.PreferenceWeights{
		UserID:         upsert.UserID,
		Interests:      upsert.Interests,
		Vibes:          upsert.Vibes,
		Kinds:          upsert.Kinds,
		LoveLanguages:  upsert.LoveLanguages,
		FeedbackCount:  upsert.FeedbackCount,
		LastAnalyzedTs: upsert.LastAnalyzedTs,
	}, nil
}

func event(action store.FeedbackAction, rating *int32, interests ...string) *store.FeedbackWithRecommendation {
	return &store.FeedbackWithRecommendation{
		Feedback:  &store.Feedback{UserID: 1, Action: action, Rating: rating},
		Kind:      store.KindGift,
		Interests: interests,
	}
}

func rating(v int32) *int32 { return &v }

func TestRecomputeMultipliers(t *testing.T) {
	// cooking: 3 positive, 0 negative -> 1 + 3/6 = 1.5
	// travel: 0 positive, 2 negative -> 1 - 2/5 = 0.6
	s := &mockLearnerStore{feedback: []*store.FeedbackWithRecommendation{
		event(store.ActionSelected, nil, "cooking"),
		event(store.ActionSaved, nil, "cooking"),
		event(store.ActionRated, rating(5), "cooking"),
		event(store.ActionRefreshed, nil, "travel"),
		event(store.ActionRated, rating(1), "travel"),
	}}

	learner := NewLearner(s)
	weights, err := learner.Recompute(context.Background(), 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, weights.Interests["cooking"], 1e-9)
	assert.InDelta(t, 0.6, weights.Interests["travel"], 1e-9)
	// Every feedback event referenced a gift recommendation:
	// 3 positive, 2 negative -> 1 + 1/8 = 1.125.
	assert.InDelta(t, 1.125, weights.Kinds["gift"], 1e-9)
	assert.Equal(t, int32(5), weights.FeedbackCount)
}

func TestRecomputeNeutralActionsIgnored(t *testing.T) {
	s := &mockLearnerStore{feedback: []*store.FeedbackWithRecommendation{
		event(store.ActionHandedOff, nil, "reading"),
		event(store.ActionRated, rating(3), "reading"),
	}}

	learner := NewLearner(s)
	weights, err := learner.Recompute(context.Background(), 1)
	require.NoError(t, err)

	// Neutral events never create an entry; readers default to 1.0.
	assert.NotContains(t, weights.Interests, "reading")
	assert.Equal(t, 1.0, store.Multiplier(weights.Interests, "reading"))
}

func TestRecomputeClampsToBounds(t *testing.T) {
	feedback := []*store.FeedbackWithRecommendation{}
	for i := 0; i < 100; i++ {
		feedback = append(feedback, event(store.ActionSelected, nil, "music"))
		feedback = append(feedback, event(store.ActionRefreshed, nil, "gaming"))
	}
	s := &mockLearnerStore{feedback: feedback}

	learner := NewLearner(s)
	weights, err := learner.Recompute(context.Background(), 1)
	require.NoError(t, err)

	// 1 + 100/103 and 1 - 100/103 stay inside the bounds on their own;
	// verify the invariant holds for everything persisted.
	for _, m := range []map[string]float64{weights.Interests, weights.Kinds} {
		for value, w := range m {
			assert.GreaterOrEqual(t, w, store.WeightMin, value)
			assert.LessOrEqual(t, w, store.WeightMax, value)
		}
	}
}

func TestRecomputeEmptyHistory(t *testing.T) {
	s := &mockLearnerStore{}

	learner := NewLearner(s)
	weights, err := learner.Recompute(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, weights.Interests)
	assert.Empty(t, weights.Vibes)
	assert.Empty(t, weights.Kinds)
	assert.Empty(t, weights.LoveLanguages)
	assert.Zero(t, weights.FeedbackCount)
}

func TestRecomputeCarriesPrevAnalyzedTs(t *testing.T) {
	s := &mockLearnerStore{
		current: &store.PreferenceWeights{UserID: 1, LastAnalyzedTs: 1700000000},
	}

	learner := NewLearner(s)
	_, err := learner.Recompute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), s.written.PrevAnalyzedTs)
}

func TestRecomputeStaleSnapshot(t *testing.T) {
	s := &mockLearnerStore{stale: true}

	learner := NewLearner(s)
	_, err := learner.Recompute(context.Background(), 1)
	require.ErrorIs(t, err, store.ErrStaleWeights)
}

func TestRecomputeAllContinuesPastStale(t *testing.T) {
	s := &mockLearnerStore{stale: true}

	learner := NewLearner(s)
	err := learner.RecomputeAll(context.Background(), []int32{1, 2, 3})
	assert.NoError(t, err)
}
