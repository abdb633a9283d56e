package sqlite

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
		WHERE user_id = ?
	`

	weights := &store.PreferenceWeights{}
	var interests, vibes, kinds, languages string
	err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&weights.UserID,
		&interests,
		&vibes,
		&kinds,
		&languages,
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
		raw  string
		dest *map[string]float64
	}{
		{interests, &weights.Interests},
		{vibes, &weights.Vibes},
		{kinds, &weights.Kinds},
		{languages, &weights.LoveLanguages},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, errors.Wrap(err, "failed to decode weight map")
		}
	}

	return weights, nil
}

// UpsertPreferenceWeights replaces the snapshot wholesale. The conditional
// DO UPDATE implements the compare-and-swap: a stored snapshot newer than
// PrevAnalyzedTs wins and the write returns ErrStaleWeights.
func (d *DB) UpsertPreferenceWeights(ctx context.Context, upsert *store.UpsertPreferenceWeights) (*store.PreferenceWeights, error) {
	interests, err := encodeWeights(upsert.Interests)
	if err != nil {
		return nil, err
	}
	vibes, err := encodeWeights(upsert.Vibes)
	if err != nil {
		return nil, err
	}
	kinds, err := encodeWeights(upsert.Kinds)
	if err != nil {
		return nil, err
	}
	languages, err := encodeWeights(upsert.LoveLanguages)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO preference_weights (user_id, interests, vibes, kinds, love_languages, feedback_count, last_analyzed_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET
			interests = excluded.interests,
			vibes = excluded.vibes,
			kinds = excluded.kinds,
			love_languages = excluded.love_languages,
			feedback_count = excluded.feedback_count,
			last_analyzed_ts = excluded.last_analyzed_ts
		WHERE preference_weights.last_analyzed_ts <= ?
		RETURNING user_id
	`

	var userID int32
	err = d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		interests,
		vibes,
		kinds,
		languages,
		upsert.FeedbackCount,
		upsert.LastAnalyzedTs,
		upsert.PrevAnalyzedTs,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func encodeWeights(m map[string]float64) (string, error) {
	if m == nil {
		m = map[string]float64{}
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode weight map")
	}
	return string(buf), nil
}
