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

func (d *DB) CreateHint(ctx context.Context, create *store.CreateHint) (*store.Hint, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	now := time.Now().Unix()

	// Embedding starts NULL; the backfill job fills it in asynchronously.
	stmt := `
		INSERT INTO hint (uid, vault_id, text, embedding, is_used, created_ts, updated_ts)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, NULL, FALSE, ` + placeholder(4) + `, ` + placeholder(5) + `)
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
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.VaultID != nil {
		where, args = append(where, "vault_id = "+placeholder(len(args)+1)), append(args, *find.VaultID)
	}
	if find.IsUsed != nil {
		where, args = append(where, "is_used = "+placeholder(len(args)+1)), append(args, *find.IsUsed)
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
		query += ` LIMIT ` + placeholder(len(args))
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
		SET embedding = ` + placeholder(1) + `, updated_ts = ` + placeholder(2) + `
		WHERE id = ` + placeholder(3) + `
	`

	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	result, err := d.db.ExecContext(ctx, stmt, vec, time.Now().Unix(), id)
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

	stmt := `
		UPDATE hint
		SET is_used = TRUE, updated_ts = ` + placeholder(1) + `
		WHERE id = ANY(` + placeholder(2) + `)
	`
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	if _, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), pq.Array(ids64)); err != nil {
		return errors.Wrap(err, "failed to mark hints used")
	}
	return nil
}

// HintVectorSearch ranks hints by cosine similarity using pgvector. The <=>
// operator computes cosine distance, so 1 - distance is the similarity;
// NULL embeddings never join the candidate set.
func (d *DB) HintVectorSearch(ctx context.Context, opts *store.HintVectorSearchOptions) ([]*store.HintWithScore, error) {
	where := []string{
		"vault_id = " + placeholder(1),
		"embedding IS NOT NULL",
	}
	args := []any{opts.VaultID}
	if !opts.IncludeUsed {
		where = append(where, "is_used = FALSE")
	}

	vector := pgvector.NewVector(opts.Vector)
	args = append(args, vector)
	scoreExpr := "1 - (embedding <=> " + placeholder(len(args)) + ")"

	if opts.MinScore > 0 {
		args = append(args, opts.MinScore)
		where = append(where, scoreExpr+" >= "+placeholder(len(args)))
	}

	args = append(args, vector)
	orderExpr := "embedding <=> " + placeholder(len(args))
	args = append(args, opts.Limit)

	query := `
		SELECT id, uid, vault_id, text, embedding, is_used, created_ts, updated_ts, ` + scoreExpr + ` AS score
		FROM hint
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + orderExpr + `
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hint vector search")
	}
	defer rows.Close()

	results := []*store.HintWithScore{}
	for rows.Next() {
		var hint store.Hint
		var vec pgvector.Vector
		var score float32
		if err := rows.Scan(
			&hint.ID,
			&hint.UID,
			&hint.VaultID,
			&hint.Text,
			&vec,
			&hint.IsUsed,
			&hint.CreatedTs,
			&hint.UpdatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan hint search result")
		}
		hint.Embedding = vec.Slice()
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		results = append(results, &store.HintWithScore{Hint: &hint, Score: score})
	}

	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// nullVector scans a nullable pgvector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vec.Scan(src)
}

func scanHint(s rowScanner) (*store.Hint, error) {
	var hint store.Hint
	var vec nullVector
	if err := s.Scan(
		&hint.ID,
		&hint.UID,
		&hint.VaultID,
		&hint.Text,
		&vec,
		&hint.IsUsed,
		&hint.CreatedTs,
		&hint.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan hint")
	}
	if vec.valid {
		hint.Embedding = vec.vec.Slice()
	}
	return &hint, nil
}
