package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) CreateMilestone(ctx context.Context, create *store.CreateMilestone) (*store.Milestone, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	tier := create.BudgetTier
	if tier == "" {
		tier = store.DefaultBudgetTier(create.Type)
	}
	now := time.Now().Unix()

	stmt := `
		INSERT INTO milestone (uid, vault_id, type, name, date, recurrence, budget_tier, created_ts, updated_ts)
		VALUES (` + placeholders(9) + `)
		RETURNING id
	`

	milestone := &store.Milestone{
		UID:        uid,
		VaultID:    create.VaultID,
		Type:       create.Type,
		Name:       create.Name,
		Date:       create.Date,
		Recurrence: create.Recurrence,
		BudgetTier: tier,
		CreatedTs:  now,
		UpdatedTs:  now,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		uid,
		create.VaultID,
		create.Type,
		create.Name,
		create.Date,
		create.Recurrence,
		tier,
		now,
		now,
	).Scan(&milestone.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create milestone")
	}

	return milestone, nil
}

func (d *DB) ListMilestones(ctx context.Context, find *store.FindMilestone) ([]*store.Milestone, error) {
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

	query := `
		SELECT id, uid, vault_id, type, name, date, recurrence, budget_tier, created_ts, updated_ts
		FROM milestone
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date ASC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list milestones")
	}
	defer rows.Close()

	list := []*store.Milestone{}
	for rows.Next() {
		var milestone store.Milestone
		if err := rows.Scan(
			&milestone.ID,
			&milestone.UID,
			&milestone.VaultID,
			&milestone.Type,
			&milestone.Name,
			&milestone.Date,
			&milestone.Recurrence,
			&milestone.BudgetTier,
			&milestone.CreatedTs,
			&milestone.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan milestone")
		}
		list = append(list, &milestone)
	}

	return list, rows.Err()
}

func (d *DB) UpdateMilestone(ctx context.Context, update *store.UpdateMilestone) (*store.Milestone, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Date != nil {
		set, args = append(set, "date = "+placeholder(len(args)+1)), append(args, *update.Date)
	}
	if update.Recurrence != nil {
		set, args = append(set, "recurrence = "+placeholder(len(args)+1)), append(args, *update.Recurrence)
	}
	if update.BudgetTier != nil {
		set, args = append(set, "budget_tier = "+placeholder(len(args)+1)), append(args, *update.BudgetTier)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
		UPDATE milestone
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, vault_id, type, name, date, recurrence, budget_tier, created_ts, updated_ts
	`

	var milestone store.Milestone
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&milestone.ID,
		&milestone.UID,
		&milestone.VaultID,
		&milestone.Type,
		&milestone.Name,
		&milestone.Date,
		&milestone.Recurrence,
		&milestone.BudgetTier,
		&milestone.CreatedTs,
		&milestone.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update milestone")
	}

	return &milestone, nil
}

// DeleteMilestone cancels the milestone's still-pending notifications, then
// deletes the row. The cancelled notifications stay visible in history.
func (d *DB) DeleteMilestone(ctx context.Context, id int32) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	cancelStmt := `
		UPDATE notification
		SET status = 'cancelled', updated_ts = ` + placeholder(1) + `
		WHERE milestone_id = ` + placeholder(2) + ` AND status IN ('pending', 'claimed')
	`
	if _, err := tx.ExecContext(ctx, cancelStmt, now, id); err != nil {
		return errors.Wrap(err, "failed to cancel notifications for milestone")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM milestone WHERE id = `+placeholder(1), id)
	if err != nil {
		return errors.Wrap(err, "failed to delete milestone")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("milestone %d not found", id)
	}

	return tx.Commit()
}
