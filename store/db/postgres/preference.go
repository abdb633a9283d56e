package postgres

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) UpsertInterest(ctx context.Context, upsert *store.UpsertInterest) (*store.Interest, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO interest (vault_id, category, polarity, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (vault_id, category)
		DO UPDATE SET polarity = EXCLUDED.polarity
		RETURNING id, created_ts
	`

	interest := &store.Interest{
		VaultID:  upsert.VaultID,
		Category: upsert.Category,
		Polarity: upsert.Polarity,
	}
	err := d.db.QueryRowContext(ctx, stmt, upsert.VaultID, upsert.Category, upsert.Polarity, now).
		Scan(&interest.ID, &interest.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert interest")
	}
	return interest, nil
}

func (d *DB) ListInterests(ctx context.Context, vaultID int32) ([]*store.Interest, error) {
	query := `
		SELECT id, vault_id, category, polarity, created_ts
		FROM interest
		WHERE vault_id = ` + placeholder(1) + `
		ORDER BY category ASC
	`

	rows, err := d.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interests")
	}
	defer rows.Close()

	list := []*store.Interest{}
	for rows.Next() {
		var interest store.Interest
		if err := rows.Scan(&interest.ID, &interest.VaultID, &interest.Category, &interest.Polarity, &interest.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan interest")
		}
		list = append(list, &interest)
	}
	return list, rows.Err()
}

func (d *DB) DeleteInterest(ctx context.Context, vaultID int32, category store.InterestCategory) error {
	stmt := `DELETE FROM interest WHERE vault_id = ` + placeholder(1) + ` AND category = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, vaultID, category); err != nil {
		return errors.Wrap(err, "failed to delete interest")
	}
	return nil
}

func (d *DB) UpsertVibeTag(ctx context.Context, upsert *store.UpsertVibeTag) (*store.VibeTag, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO vibe_tag (vault_id, tag, created_ts)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (vault_id, tag) DO UPDATE SET tag = EXCLUDED.tag
		RETURNING id, created_ts
	`

	tag := &store.VibeTag{VaultID: upsert.VaultID, Tag: upsert.Tag}
	err := d.db.QueryRowContext(ctx, stmt, upsert.VaultID, upsert.Tag, now).Scan(&tag.ID, &tag.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert vibe tag")
	}
	return tag, nil
}

func (d *DB) ListVibeTags(ctx context.Context, vaultID int32) ([]*store.VibeTag, error) {
	query := `
		SELECT id, vault_id, tag, created_ts
		FROM vibe_tag
		WHERE vault_id = ` + placeholder(1) + `
		ORDER BY tag ASC
	`

	rows, err := d.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vibe tags")
	}
	defer rows.Close()

	list := []*store.VibeTag{}
	for rows.Next() {
		var tag store.VibeTag
		if err := rows.Scan(&tag.ID, &tag.VaultID, &tag.Tag, &tag.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan vibe tag")
		}
		list = append(list, &tag)
	}
	return list, rows.Err()
}

func (d *DB) DeleteVibeTag(ctx context.Context, vaultID int32, tag store.VibeTagValue) error {
	stmt := `DELETE FROM vibe_tag WHERE vault_id = ` + placeholder(1) + ` AND tag = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, vaultID, tag); err != nil {
		return errors.Wrap(err, "failed to delete vibe tag")
	}
	return nil
}

// UpsertLoveLanguage keeps exactly one language per rank through the
// (vault_id, rank) unique key.
func (d *DB) UpsertLoveLanguage(ctx context.Context, upsert *store.UpsertLoveLanguage) (*store.LoveLanguage, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO love_language (vault_id, language, rank, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (vault_id, rank) DO UPDATE SET language = EXCLUDED.language
		RETURNING id, created_ts
	`

	language := &store.LoveLanguage{
		VaultID:  upsert.VaultID,
		Language: upsert.Language,
		Rank:     upsert.Rank,
	}
	err := d.db.QueryRowContext(ctx, stmt, upsert.VaultID, upsert.Language, upsert.Rank, now).
		Scan(&language.ID, &language.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert love language")
	}
	return language, nil
}

func (d *DB) ListLoveLanguages(ctx context.Context, vaultID int32) ([]*store.LoveLanguage, error) {
	query := `
		SELECT id, vault_id, language, rank, created_ts
		FROM love_language
		WHERE vault_id = ` + placeholder(1) + `
		ORDER BY rank ASC
	`

	rows, err := d.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list love languages")
	}
	defer rows.Close()

	list := []*store.LoveLanguage{}
	for rows.Next() {
		var language store.LoveLanguage
		if err := rows.Scan(&language.ID, &language.VaultID, &language.Language, &language.Rank, &language.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan love language")
		}
		list = append(list, &language)
	}
	return list, rows.Err()
}

func (d *DB) UpsertBudget(ctx context.Context, upsert *store.UpsertBudget) (*store.Budget, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO budget (vault_id, occasion_type, min_cents, max_cents, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (vault_id, occasion_type)
		DO UPDATE SET
			min_cents = EXCLUDED.min_cents,
			max_cents = EXCLUDED.max_cents,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts
	`

	budget := &store.Budget{
		VaultID:      upsert.VaultID,
		OccasionType: upsert.OccasionType,
		MinCents:     upsert.MinCents,
		MaxCents:     upsert.MaxCents,
	}
	err := d.db.QueryRowContext(ctx, stmt, upsert.VaultID, upsert.OccasionType, upsert.MinCents, upsert.MaxCents, now, now).
		Scan(&budget.ID, &budget.CreatedTs, &budget.UpdatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert budget")
	}
	return budget, nil
}

func (d *DB) ListBudgets(ctx context.Context, vaultID int32) ([]*store.Budget, error) {
	query := `
		SELECT id, vault_id, occasion_type, min_cents, max_cents, created_ts, updated_ts
		FROM budget
		WHERE vault_id = ` + placeholder(1) + `
		ORDER BY occasion_type ASC
	`

	rows, err := d.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list budgets")
	}
	defer rows.Close()

	list := []*store.Budget{}
	for rows.Next() {
		var budget store.Budget
		if err := rows.Scan(&budget.ID, &budget.VaultID, &budget.OccasionType, &budget.MinCents, &budget.MaxCents, &budget.CreatedTs, &budget.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan budget")
		}
		list = append(list, &budget)
	}
	return list, rows.Err()
}
