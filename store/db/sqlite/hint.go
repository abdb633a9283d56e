package sqlite

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// maxVectorSearchCandidates caps the linear-scan candidate set so a vault
// with many hints cannot blow up a similarity query.
const maxVectorSearchCandidates = 1000

func (d *DB) CreateHint(ctx context.Context, create *store.CreateHint) (*store.Hint, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	now := time.Now().Unix()

	// Embedding starts NULL; the backfill job fills it in asynchronously.
	stmt := `
		INSERT INTO hint (uid, vault_id, text, embedding, is_used, created_ts, updated_ts)
		VALUES (?, ?, ?, NULL, 0, ?, ?)
		RETURNING id
	`

	hint := &store.Hint{
		UID:       uid,
		VaultID:   create.VaultID,
		Text:      create.Text,
		CreatedTs: now,
		UpdatedTs: now,
	}
	err := d.db.QueryRowContext(ctx, stmt, uid, create.VaultID, create.Text, now, now).Scan(&hint.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create hint")
	}

	return hint, nil
}

func (d *DB) ListHints(ctx context.Context, find *store.FindHint) ([]*store.Hint, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.VaultID != nil {
		where, args = append(where, "vault_id = ?"), append(args, *find.VaultID)
	}
	if find.IsUsed != nil {
		where, args = append(where, "is_used = ?"), append(args, *find.IsUsed)
	}
	if find.HasEmbedding != nil {
		if *find.HasEmbedding {
			where = append(where, "embedding IS NOT NULL")
		} else {
			where = append(where, "embedding IS NULL")
		}
	}

	query := `
		SELECT id, uid, vault_id, text, embedding, is_used, created_ts, updated_ts
		FROM hint
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hints")
	}
	defer rows.Close()

	list := []*store.Hint{}
	for rows.Next() {
		hint, err := scanHint(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, hint)
	}

	return list, rows.Err()
}

func (d *DB) UpdateHintEmbedding(ctx context.Context, id int32, embedding []float32) error {
	stmt := `
		UPDATE hint
		SET embedding = ?, updated_ts = ?
		WHERE id = ?
	`

	var blob any
	if len(embedding) > 0 {
		blob = float32ArrayToBLOB(embedding)
	}
	result, err := d.db.ExecContext(ctx, stmt, blob, time.Now().Unix(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update hint embedding")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("hint %d not found", id)
	}
	return nil
}

func (d *DB) MarkHintsUsed(ctx context.Context, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}

	args := []any{time.Now().Unix()}
	marks := make([]string, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}
	stmt := `
		UPDATE hint
		SET is_used = 1, updated_ts = ?
		WHERE id IN (` + strings.Join(marks, ", ") + `)
	`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to mark hints used")
	}
	return nil
}

// HintVectorSearch computes cosine similarity in the application layer.
// Candidates are loaded newest-first up to a fixed cap, then ranked in Go;
// good enough for the single-user deployments SQLite targets.
func (d *DB) HintVectorSearch(ctx context.Context, opts *store.HintVectorSearchOptions) ([]*store.HintWithScore, error) {
	where, args := []string{"vault_id = ?", "embedding IS NOT NULL"}, []any{opts.VaultID}
	if !opts.IncludeUsed {
		where = append(where, "is_used = 0")
	}
	args = append(args, maxVectorSearchCandidates)

	query := `
		SELECT id, uid, vault_id, text, embedding, is_used, created_ts, updated_ts
		FROM hint
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hint vector search")
	}
	defer rows.Close()

	results := []*store.HintWithScore{}
	for rows.Next() {
		hint, err := scanHint(rows)
		if err != nil {
			return nil, err
		}
		score := cosineSimilarity(opts.Vector, hint.Embedding)
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}
		results = append(results, &store.HintWithScore{Hint: hint, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHint(s rowScanner) (*store.Hint, error) {
	var hint store.Hint
	var blob []byte
	if err := s.Scan(
		&hint.ID,
		&hint.UID,
		&hint.VaultID,
		&hint.Text,
		&blob,
		&hint.IsUsed,
		&hint.CreatedTs,
		&hint.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan hint")
	}
	if len(blob) > 0 {
		vec, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode hint embedding")
		}
		hint.Embedding = vec
	}
	return &hint, nil
}
