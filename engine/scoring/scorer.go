// Package scoring ranks candidate recommendations against a vault's
// preference facts and the user's learned weight multipliers.
package scoring

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// Dimension coefficients for the composite score. They sum to 1.
const (
	interestCoeff     = 0.40
	vibeCoeff         = 0.35
	loveLanguageCoeff = 0.25
)

// Love-language rank weights and their normalizer.
const (
	primaryWeight    = 1.0
	secondaryWeight  = 0.5
	loveLanguageNorm = primaryWeight + secondaryWeight
)

// Contextual hint boost: candidates semantically close to an unused hint
// gain a flat bonus on the composite.
const (
	hintBoost          = 0.15
	hintBoostThreshold = 0.75
)

// scorerStore is the slice of the store the scorer touches.
type scorerStore interface {
	GetVaultProfile(ctx context.Context, vaultID int32) (*store.VaultProfile, error)
	GetPreferenceWeights(ctx context.Context, find *store.FindPreferenceWeights) (*store.PreferenceWeights, error)
	HintVectorSearch(ctx context.Context, opts *store.HintVectorSearchOptions) ([]*store.HintWithScore, error)
	MarkHintsUsed(ctx context.Context, ids []int32) error
}

// Candidate is an unscored recommendation candidate.
type Candidate struct {
	UID           string
	Kind          store.RecommendationKind
	Title         string
	Description   string
	Interests     []string
	Vibes         []string
	LoveLanguages []string
	// Embedding of the description text, nil when unavailable. Without it
	// the candidate simply never receives the contextual hint boost.
	Embedding []float32
}

// ScoredCandidate is a candidate with its per-dimension and composite
// scores, plus the unused hints that triggered a contextual boost.
type ScoredCandidate struct {
	Candidate         *Candidate
	InterestScore     float64
	VibeScore         float64
	LoveLanguageScore float64
	CompositeScore    float64
	HintIDs           []int32
}

// RankOptions tunes a single ranking call.
type RankOptions struct {
	// VibeOverride replaces the vault's stored vibe tags for this call
	// only; it does not persist into future scoring.
	VibeOverride []store.VibeTagValue
}

// Scorer computes preference-match scores. Scoring is side-effect free;
// hint consumption happens only through ConfirmSelection.
type Scorer struct {
	store scorerStore
}

// NewScorer creates a Scorer.
func NewScorer(s scorerStore) *Scorer {
	return &Scorer{store: s}
}

// Rank scores the candidates against the vault's preferences and returns
// them ordered by composite score descending, love-language score
// descending, then UID ascending. Candidates matching a disliked interest
// are dropped entirely.
func (s *Scorer) Rank(ctx context.Context, vaultID int32, candidates []*Candidate, opts *RankOptions) ([]*ScoredCandidate, error) {
	profile, err := s.store.GetVaultProfile(ctx, vaultID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vault profile")
	}

	weights, err := s.store.GetPreferenceWeights(ctx, &store.FindPreferenceWeights{UserID: profile.UserID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load preference weights")
	}
	if weights == nil {
		weights = &store.PreferenceWeights{UserID: profile.UserID}
	}

	vibes := profile.Vibes
	if opts != nil && len(opts.VibeOverride) > 0 {
		vibes = opts.VibeOverride
	}

	dislikes := make(map[string]bool, len(profile.Dislikes))
	for _, d := range profile.Dislikes {
		dislikes[string(d)] = true
	}

	scored := make([]*ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if matchesAny(c.Interests, dislikes) {
			continue
		}

		sc := &ScoredCandidate{
			Candidate:         c,
			InterestScore:     interestScore(c, profile, weights),
			VibeScore:         vibeScore(c, vibes, weights),
			LoveLanguageScore: loveLanguageScore(c, profile, weights),
		}
		sc.CompositeScore = interestCoeff*sc.InterestScore +
			vibeCoeff*sc.VibeScore +
			loveLanguageCoeff*sc.LoveLanguageScore

		hintIDs, err := s.boostHints(ctx, vaultID, c)
		if err != nil {
			return nil, err
		}
		if len(hintIDs) > 0 {
			sc.CompositeScore += hintBoost
			sc.HintIDs = hintIDs
		}

		scored = append(scored, sc)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].CompositeScore != scored[j].CompositeScore {
			return scored[i].CompositeScore > scored[j].CompositeScore
		}
		if scored[i].LoveLanguageScore != scored[j].LoveLanguageScore {
			return scored[i].LoveLanguageScore > scored[j].LoveLanguageScore
		}
		return scored[i].Candidate.UID < scored[j].Candidate.UID
	})

	return scored, nil
}

// ConfirmSelection records that a recommendation was actually chosen by the
// user and consumes the hints that boosted it. This is the only path that
// marks hints used; ranking alone never mutates them.
func (s *Scorer) ConfirmSelection(ctx context.Context, rec *store.Recommendation) error {
	if len(rec.HintIDs) == 0 {
		return nil
	}
	if err := s.store.MarkHintsUsed(ctx, rec.HintIDs); err != nil {
		return errors.Wrap(err, "failed to mark hints used")
	}
	return nil
}

// boostHints returns the unused hints whose embedding reaches the boost
// threshold against the candidate's description embedding.
func (s *Scorer) boostHints(ctx context.Context, vaultID int32, c *Candidate) ([]int32, error) {
	if len(c.Embedding) == 0 {
		return nil, nil
	}
	results, err := s.store.HintVectorSearch(ctx, &store.HintVectorSearchOptions{
		VaultID:  vaultID,
		Vector:   c.Embedding,
		MinScore: hintBoostThreshold,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search hints")
	}
	if len(results) == 0 {
		return nil, nil
	}
	ids := make([]int32, len(results))
	for i, r := range results {
		ids[i] = r.Hint.ID
	}
	return ids, nil
}

// interestScore sums the learned weights of liked categories the candidate
// matches, normalized by the vault's like count and clamped to [0, 1].
func interestScore(c *Candidate, profile *store.VaultProfile, weights *store.PreferenceWeights) float64 {
	if len(profile.Likes) == 0 {
		return 0
	}
	likes := make(map[string]bool, len(profile.Likes))
	for _, l := range profile.Likes {
		likes[string(l)] = true
	}
	var sum float64
	for _, v := range c.Interests {
		if likes[v] {
			sum += store.Multiplier(weights.Interests, v)
		}
	}
	return clamp01(sum / float64(len(profile.Likes)))
}

func vibeScore(c *Candidate, vibes []store.VibeTagValue, weights *store.PreferenceWeights) float64 {
	if len(vibes) == 0 {
		return 0
	}
	tagged := make(map[string]bool, len(vibes))
	for _, v := range vibes {
		tagged[string(v)] = true
	}
	var sum float64
	for _, v := range c.Vibes {
		if tagged[v] {
			sum += store.Multiplier(weights.Vibes, v)
		}
	}
	return clamp01(sum / float64(len(vibes)))
}

// loveLanguageScore weights a primary match at 1.0 and a secondary match at
// 0.5, each scaled by the learned multiplier, normalized by the maximum
// attainable 1.5.
func loveLanguageScore(c *Candidate, profile *store.VaultProfile, weights *store.PreferenceWeights) float64 {
	if profile.Primary == "" && profile.Secondary == "" {
		return 0
	}
	var sum float64
	for _, v := range c.LoveLanguages {
		switch store.LoveLanguageValue(v) {
		case profile.Primary:
			sum += primaryWeight * store.Multiplier(weights.LoveLanguages, v)
		case profile.Secondary:
			sum += secondaryWeight * store.Multiplier(weights.LoveLanguages, v)
		}
	}
	return clamp01(sum / loveLanguageNorm)
}

func matchesAny(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
