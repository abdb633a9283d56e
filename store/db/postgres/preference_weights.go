package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) GetPreferenceWeights(ctx context.Context, find *store.FindPreferenceWeights) (*store.PreferenceWeights, error) {
	query := `
		SELECT user_id, interests, vibes, kinds, love_languages, feedback_count, last_analyzed_ts
		FROM preference_weights
		WHERE user_id = ` + placeholder(1)

	var weights store.PreferenceWeights
	var interests, vibes, kinds, loveLanguages []byte
	err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&weights.UserID,
		&interests,
		&vibes,
		&kinds,
		&loveLanguages,
		&weights.FeedbackCount,
		&weights.LastAnalyzedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get preference weights")
	}

	for _, pair := range []struct {
		raw  []byte
		dest *map[string]float64
	}{
		{interests, &weights.Interests},
		{vibes, &weights.Vibes},
		{kinds, &weights.Kinds},
		{loveLanguages, &weights.LoveLanguages},
	} {
		if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal weight map")
		}
	}

	return &weights, nil
}

// UpsertPreferenceWeights replaces the snapshot for a user. The write is
// conditional on the stored last_analyzed_ts not being newer than the
// snapshot the caller started from, which serializes concurrent learner runs
// without locks.
func (d *DB) UpsertPreferenceWeights(ctx context.Context, upsert *store.UpsertPreferenceWeights) (*store.PreferenceWeights, error) {
	interests, err := json.Marshal(orEmpty(upsert.Interests))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal interests")
	}
	vibes, err := json.Marshal(orEmpty(upsert.Vibes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal vibes")
	}
	kinds, err := json.Marshal(orEmpty(upsert.Kinds))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal kinds")
	}
	loveLanguages, err := json.Marshal(orEmpty(upsert.LoveLanguages))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal love languages")
	}

	stmt := `
		INSERT INTO preference_weights (user_id, interests, vibes, kinds, love_languages, feedback_count, last_analyzed_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (user_id)
		DO UPDATE SET
			interests = EXCLUDED.interests,
			vibes = EXCLUDED.vibes,
			kinds = EXCLUDED.kinds,
			love_languages = EXCLUDED.love_languages,
			feedback_count = EXCLUDED.feedback_count,
			last_analyzed_ts = EXCLUDED.last_analyzed_ts
		WHERE preference_weights.last_analyzed_ts <= ` + placeholder(8) + `
		RETURNING user_id
	`

	var userID int32
	err = d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		interests,
		vibes,
		kinds,
		loveLanguages,
		upsert.FeedbackCount,
		upsert.LastAnalyzedTs,
		upsert.PrevAnalyzedTs,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A newer snapshot landed first.
			return nil, store.ErrStaleWeights
		}
		return nil, errors.Wrap(err, "failed to upsert preference weights")
	}

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

func orEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
