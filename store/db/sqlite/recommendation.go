package sqlite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

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

	interests, err := encodeStrings(create.Interests)
	if err != nil {
		return nil, err
	}
	vibes, err := encodeStrings(create.Vibes)
	if err != nil {
		return nil, err
	}
	languages, err := encodeStrings(create.LoveLanguages)
	if err != nil {
		return nil, err
	}
	hintIDs, err := encodeInt32s(create.HintIDs)
	if err != nil {
		return nil, err
	}
	var blob any
	if len(create.Embedding) > 0 {
		blob = float32ArrayToBLOB(create.Embedding)
	}

	stmt := `
		INSERT INTO recommendation (
			uid, vault_id, milestone_id, kind, title, description,
			interests, vibes, love_languages,
			interest_score, vibe_score, love_language_score, composite_score,
			hint_ids, embedding, created_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
	err = d.db.QueryRowContext(ctx, stmt,
		uid,
		create.VaultID,
		create.MilestoneID,
		create.Kind,
		create.Title,
		create.Description,
		interests,
		vibes,
		languages,
		create.InterestScore,
		create.VibeScore,
		create.LoveLanguageScore,
		create.CompositeScore,
		hintIDs,
		blob,
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
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.VaultID != nil {
		where, args = append(where, "vault_id = ?"), append(args, *find.VaultID)
	}
	if find.MilestoneID != nil {
		where, args = append(where, "milestone_id = ?"), append(args, *find.MilestoneID)
	}

	query := `
		SELECT id, uid, vault_id, milestone_id, kind, title, description,
			interests, vibes, love_languages,
			interest_score, vibe_score, love_language_score, composite_score,
			hint_ids, embedding, created_ts
		FROM recommendation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY composite_score DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommendations")
	}
	defer rows.Close()

	list := []*store.Recommendation{}
	for rows.Next() {
		var rec store.Recommendation
		var interests, vibes, languages, hintIDs string
		var blob []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.UID,
			&rec.VaultID,
			&rec.MilestoneID,
			&rec.Kind,
			&rec.Title,
			&rec.Description,
			&interests,
			&vibes,
			&languages,
			&rec.InterestScore,
			&rec.VibeScore,
			&rec.LoveLanguageScore,
			&rec.CompositeScore,
			&hintIDs,
			&blob,
			&rec.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan recommendation")
		}
		if err := json.Unmarshal([]byte(interests), &rec.Interests); err != nil {
			return nil, errors.Wrap(err, "failed to decode interests")
		}
		if err := json.Unmarshal([]byte(vibes), &rec.Vibes); err != nil {
			return nil, errors.Wrap(err, "failed to decode vibes")
		}
		if err := json.Unmarshal([]byte(languages), &rec.LoveLanguages); err != nil {
			return nil, errors.Wrap(err, "failed to decode love languages")
		}
		if err := json.Unmarshal([]byte(hintIDs), &rec.HintIDs); err != nil {
			return nil, errors.Wrap(err, "failed to decode hint ids")
		}
		if len(blob) > 0 {
			vec, err := blobToFloat32Array(blob)
			if err != nil {
				return nil, errors.Wrap(err, "failed to decode recommendation embedding")
			}
			rec.Embedding = vec
		}
		list = append(list, &rec)
	}

	return list, rows.Err()
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode string array")
	}
	return string(buf), nil
}

func encodeInt32s(values []int32) (string, error) {
	if values == nil {
		values = []int32{}
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode int array")
	}
	return string(buf), nil
}
