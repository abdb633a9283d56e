// Package weights learns per-user preference multipliers from accumulated
// feedback. The learner runs as a batch job; scoring reads the latest
// snapshot and never waits on it.
package weights

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// Learner parameters. The smoothing constant keeps a single feedback event
// from swinging a multiplier to its bound.
const (
	gain      = 1.0
	smoothing = 3.0
)

// learnerStore is the slice of the store the learner touches.
type learnerStore interface {
	ListFeedbackWithRecommendations(ctx context.Context, find *store.FindFeedback) ([]*store.FeedbackWithRecommendation, error)
	GetPreferenceWeights(ctx context.Context, find *store.FindPreferenceWeights) (*store.PreferenceWeights, error)
	UpsertPreferenceWeights(ctx context.Context, upsert *store.UpsertPreferenceWeights) (*store.PreferenceWeights, error)
}

// Learner recomputes preference weight snapshots from feedback history.
type Learner struct {
	store learnerStore
}

// NewLearner creates a Learner.
func NewLearner(s learnerStore) *Learner {
	return &Learner{store: s}
}

// signal is the per-value positive/negative tally for one dimension.
type signal struct {
	pos int
	neg int
}

// Recompute replays the user's full feedback history into a fresh weight
// snapshot and writes it with a compare-and-swap against the snapshot that
// was current when the recompute started. store.ErrStaleWeights means a
// concurrent run won; the caller can simply skip, the winner's snapshot
// already covers the same history.
func (l *Learner) Recompute(ctx context.Context, userID int32) (*store.PreferenceWeights, error) {
	prev, err := l.store.GetPreferenceWeights(ctx, &store.FindPreferenceWeights{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load current weights")
	}
	var prevAnalyzedTs int64
	if prev != nil {
		prevAnalyzedTs = prev.LastAnalyzedTs
	}

	feedback, err := l.store.ListFeedbackWithRecommendations(ctx, &store.FindFeedback{UserID: &userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load feedback")
	}

	interests := map[string]*signal{}
	vibes := map[string]*signal{}
	kinds := map[string]*signal{}
	languages := map[string]*signal{}

	for _, entry := range feedback {
		direction := feedbackDirection(entry.Feedback)
		if direction == 0 {
			continue
		}
		tallyAll(interests, entry.Interests, direction)
		tallyAll(vibes, entry.Vibes, direction)
		tallyAll(languages, entry.LoveLanguages, direction)
		tally(kinds, string(entry.Kind), direction)
	}

	upsert := &store.UpsertPreferenceWeights{
		UserID:         userID,
		Interests:      multipliers(interests),
		Vibes:          multipliers(vibes),
		Kinds:          multipliers(kinds),
		LoveLanguages:  multipliers(languages),
		FeedbackCount:  int32(len(feedback)),
		LastAnalyzedTs: time.Now().Unix(),
		PrevAnalyzedTs: prevAnalyzedTs,
	}
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	return l.store.UpsertPreferenceWeights(ctx, upsert)
}

// RecomputeAll sweeps every user in the list, continuing past per-user
// failures. Lost CAS races are expected and logged at debug only.
func (l *Learner) RecomputeAll(ctx context.Context, userIDs []int32) error {
	var failed int
	for _, userID := range userIDs {
		if _, err := l.Recompute(ctx, userID); err != nil {
			if errors.Is(err, store.ErrStaleWeights) {
				slog.Debug("weight recompute lost cas race", "user", userID)
				continue
			}
			failed++
			slog.Error("weight recompute failed", "user", userID, "error", err)
		}
	}
	if failed > 0 {
		return errors.Errorf("weight recompute failed for %d of %d users", failed, len(userIDs))
	}
	return nil
}

// feedbackDirection maps a feedback event to +1 (positive), -1 (negative)
// or 0 (neutral, ignored).
func feedbackDirection(f *store.Feedback) int {
	switch f.Action {
	case store.ActionSelected, store.ActionSaved, store.ActionShared, store.ActionPurchased:
		return 1
	case store.ActionRefreshed:
		return -1
	case store.ActionRated:
		if f.Rating == nil {
			return 0
		}
		if *f.Rating >= 4 {
			return 1
		}
		if *f.Rating <= 2 {
			return -1
		}
		return 0
	default:
		return 0
	}
}

func tallyAll(m map[string]*signal, values []string, direction int) {
	for _, v := range values {
		tally(m, v, direction)
	}
}

func tally(m map[string]*signal, value string, direction int) {
	if value == "" {
		return
	}
	s := m[value]
	if s == nil {
		s = &signal{}
		m[value] = s
	}
	if direction > 0 {
		s.pos++
	} else {
		s.neg++
	}
}

// multipliers converts tallies into clamped weight multipliers. Values with
// no feedback never enter the map; readers treat absence as neutral 1.0.
func multipliers(m map[string]*signal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for value, s := range m {
		p, n := float64(s.pos), float64(s.neg)
		w := 1 + gain*(p-n)/(p+n+smoothing)
		if w < store.WeightMin {
			w = store.WeightMin
		} else if w > store.WeightMax {
			w = store.WeightMax
		}
		out[value] = w
	}
	return out
}
