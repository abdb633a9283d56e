package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) CreateVault(ctx context.Context, create *store.CreateVault) (*store.Vault, error) {
	uid := create.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	now := time.Now().Unix()

	stmt := `
		INSERT INTO vault (uid, user_id, partner_name, relationship_start, cohabiting, location, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	vault := &store.Vault{
		UID:               uid,
		UserID:            create.UserID,
		PartnerName:       create.PartnerName,
		RelationshipStart: create.RelationshipStart,
		Cohabiting:        create.Cohabiting,
		Location:          create.Location,
		CreatedTs:         now,
		UpdatedTs:         now,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		uid,
		create.UserID,
		create.PartnerName,
		create.RelationshipStart,
		create.Cohabiting,
		create.Location,
		now,
		now,
	).Scan(&vault.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vault")
	}

	return vault, nil
}

func (d *DB) ListVaults(ctx context.Context, find *store.FindVault) ([]*store.Vault, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `
		SELECT id, uid, user_id, partner_name, relationship_start, cohabiting, location, created_ts, updated_ts
		FROM vault
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vaults")
	}
	defer rows.Close()

	list := []*store.Vault{}
	for rows.Next() {
		var vault store.Vault
		if err := rows.Scan(
			&vault.ID,
			&vault.UID,
			&vault.UserID,
			&vault.PartnerName,
			&vault.RelationshipStart,
			&vault.Cohabiting,
			&vault.Location,
			&vault.CreatedTs,
			&vault.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vault")
		}
		list = append(list, &vault)
	}

	return list, rows.Err()
}

func (d *DB) UpdateVault(ctx context.Context, update *store.UpdateVault) (*store.Vault, error) {
	set, args := []string{}, []any{}

	if update.PartnerName != nil {
		set, args = append(set, "partner_name = ?"), append(args, *update.PartnerName)
	}
	if update.RelationshipStart != nil {
		set, args = append(set, "relationship_start = ?"), append(args, *update.RelationshipStart)
	}
	if update.Cohabiting != nil {
		set, args = append(set, "cohabiting = ?"), append(args, *update.Cohabiting)
	}
	if update.Location != nil {
		set, args = append(set, "location = ?"), append(args, *update.Location)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
		UPDATE vault
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING id, uid, user_id, partner_name, relationship_start, cohabiting, location, created_ts, updated_ts
	`

	var vault store.Vault
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&vault.ID,
		&vault.UID,
		&vault.UserID,
		&vault.PartnerName,
		&vault.RelationshipStart,
		&vault.Cohabiting,
		&vault.Location,
		&vault.CreatedTs,
		&vault.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update vault")
	}

	return &vault, nil
}

// DeleteVault cancels still-live notifications for the vault's milestones
// before the cascading row deletions remove the milestones themselves.
func (d *DB) DeleteVault(ctx context.Context, id int32) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	cancelStmt := `
		UPDATE notification
		SET status = 'cancelled', updated_ts = ?
		WHERE status IN ('pending', 'claimed')
			AND milestone_id IN (SELECT id FROM milestone WHERE vault_id = ?)
	`
	if _, err := tx.ExecContext(ctx, cancelStmt, now, id); err != nil {
		return errors.Wrap(err, "failed to cancel notifications for vault")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM vault WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete vault")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("vault %d not found", id)
	}

	return tx.Commit()
}
