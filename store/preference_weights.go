package store

import (
	"github.com/pkg/errors"
)

// ErrStaleWeights is returned when a weight snapshot write loses the
// compare-and-swap against a newer snapshot.
var ErrStaleWeights = errors.New("preference weights snapshot is stale")

// Weight multiplier bounds. The learner clamps before persistence; the
// store rejects out-of-bound values as a programming error.
const (
	WeightMin = 0.5
	WeightMax = 2.0
)

// PreferenceWeights is the learned per-dimension multiplier snapshot for a
// user. At most one row exists per user; each learner run replaces it
// wholesale. Values absent from a map are neutral (1.0). Entirely derived
// and recomputable; never user-writable.
type PreferenceWeights struct {
	UserID         int32
	Interests      map[string]float64
	Vibes          map[string]float64
	Kinds          map[string]float64
	LoveLanguages  map[string]float64
	FeedbackCount  int32
	LastAnalyzedTs int64
}

// FindPreferenceWeights specifies the conditions for finding weight snapshots.
type FindPreferenceWeights struct {
	UserID int32
}

// UpsertPreferenceWeights replaces the snapshot for a user. PrevAnalyzedTs is
// the LastAnalyzedTs the writer observed before recomputing; the write is
// rejected with ErrStaleWeights when the stored snapshot is newer, so two
// concurrent learner runs cannot interleave partial writes.
type UpsertPreferenceWeights struct {
	UserID         int32
	Interests      map[string]float64
	Vibes          map[string]float64
	Kinds          map[string]float64
	LoveLanguages  map[string]float64
	FeedbackCount  int32
	LastAnalyzedTs int64
	PrevAnalyzedTs int64
}

func (u *UpsertPreferenceWeights) Validate() error {
	if u.UserID <= 0 {
		return errors.Errorf("invalid user id: %d", u.UserID)
	}
	if u.LastAnalyzedTs <= 0 {
		return errors.New("last analyzed timestamp required")
	}
	for _, m := range []map[string]float64{u.Interests, u.Vibes, u.Kinds, u.LoveLanguages} {
		for k, v := range m {
			if v < WeightMin || v > WeightMax {
				return errors.Errorf("weight %q out of range [%.1f, %.1f]: %f", k, WeightMin, WeightMax, v)
			}
		}
	}
	return nil
}

// Multiplier returns the learned multiplier for a dimension value, treating
// missing entries as neutral.
func Multiplier(m map[string]float64, value string) float64 {
	if m == nil {
		return 1.0
	}
	if w, ok := m[value]; ok {
		return w
	}
	return 1.0
}
