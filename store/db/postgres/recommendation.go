package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) CreateRecommendation(ctx context.Context, create *store.CreateRecommendation) (*store.Recommendation, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	now := time.Now().Unix()

	var vec any
	if len(create.Embedding) > 0 {
		vec = pgvector.NewVector(create.Embedding)
	}

	stmt := `
		INSERT INTO recommendation (
			uid, vault_id, milestone_id, kind, title, description,
			interests, vibes, love_languages,
			interest_score, vibe_score, love_language_score, composite_score,
			hint_ids, embedding, created_ts
		) VALUES (` + placeholders(16) + `)
		RETURNING id
	`

	rec := &store.Recommendation{
		UID:               uid,
		VaultID:           create.VaultID,
		MilestoneID:       create.MilestoneID,
		Kind:              create.Kind,
		Title:             create.Title,
		Description:       create.Description,
		Interests:         create.Interests,
		Vibes:             create.Vibes,
		LoveLanguages:     create.LoveLanguages,
		InterestScore:     create.InterestScore,
		VibeScore:         create.VibeScore,
		LoveLanguageScore: create.LoveLanguageScore,
		CompositeScore:    create.CompositeScore,
		HintIDs:           create.HintIDs,
		Embedding:         create.Embedding,
		CreatedTs:         now,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		uid,
		create.VaultID,
		create.MilestoneID,
		create.Kind,
		create.Title,
		create.Description,
		pq.Array(create.Interests),
		pq.Array(create.Vibes),
		pq.Array(create.LoveLanguages),
		create.InterestScore,
		create.VibeScore,
		create.LoveLanguageScore,
		create.CompositeScore,
		pq.Array(toInt64s(create.HintIDs)),
		vec,
		now,
	).Scan(&rec.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create recommendation")
	}

	return rec, nil
}

func (d *DB) ListRecommendations(ctx context.Context, find *store.FindRecommendation) ([]*store.Recommendation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.VaultID != nil {
		where, args = append(where, "vault_id = "+placeholder(len(args)+1)), append(args, *find.VaultID)
	}
	if find.MilestoneID != nil {
		where, args = append(where, "milestone_id = "+placeholder(len(args)+1)), append(args, *find.MilestoneID)
	}

	query := `
		SELECT id, uid, vault_id, milestone_id, kind, title, description,
			interests, vibes, love_languages,
			interest_score, vibe_score, love_language_score, composite_score,
			hint_ids, embedding, created_ts
		FROM recommendation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY composite_score DESC, created_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommendations")
	}
	defer rows.Close()

	list := []*store.Recommendation{}
	for rows.Next() {
		var rec store.Recommendation
		var vec nullVector
		var hintIDs pq.Int64Array
		if err := rows.Scan(
			&rec.ID,
			&rec.UID,
			&rec.VaultID,
			&rec.MilestoneID,
			&rec.Kind,
			&rec.Title,
			&rec.Description,
			pq.Array(&rec.Interests),
			pq.Array(&rec.Vibes),
			pq.Array(&rec.LoveLanguages),
			&rec.InterestScore,
			&rec.VibeScore,
			&rec.LoveLanguageScore,
			&rec.CompositeScore,
			&hintIDs,
			&vec,
			&rec.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation")
		}
		rec.HintIDs = toInt32s(hintIDs)
		if vec.valid {
			rec.Embedding = vec.vec.Slice()
		}
		list = append(list, &rec)
	}

	return list, rows.Err()
}

func toInt64s(in []int32) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func toInt32s(in []int64) []int32 {
	if len(in) == 0 {
		return nil
	}
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
