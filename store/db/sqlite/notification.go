package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

const notificationFields = `id, uid, user_id, milestone_id, lead_days, occurrence_date, scheduled_ts, status, sent_ts, viewed_ts, created_ts, updated_ts`

// UpsertNotification writes or updates the row keyed by
// (milestone, lead days, occurrence date). The conditional DO UPDATE leaves
// terminal rows untouched, so recomputation never resurrects or duplicates.
func (d *DB) UpsertNotification(ctx context.Context, upsert *store.UpsertNotification) (*store.Notification, error) {
	uid := upsert.UID
	if uid == "" {
		uid = util.GenShortUID()
	}
	now := time.Now().Unix()

	stmt := `
		INSERT INTO notification (uid, user_id, milestone_id, lead_days, occurrence_date, scheduled_ts, status, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?)
		ON CONFLICT (milestone_id, lead_days, occurrence_date)
		DO UPDATE SET
			scheduled_ts = excluded.scheduled_ts,
			updated_ts = excluded.updated_ts
		WHERE notification.status = 'pending'
		RETURNING ` + notificationFields

	row := d.db.QueryRowContext(ctx, stmt,
		uid,
		upsert.UserID,
		upsert.MilestoneID,
		upsert.LeadDays,
		upsert.OccurrenceDate,
		upsert.ScheduledTs,
		now,
		now,
	)
	notification, err := scanNotification(row)
	if err == nil {
		return notification, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "failed to upsert notification")
	}

	// The conflicting row is terminal; return it unchanged.
	query := `
		SELECT ` + notificationFields + `
		FROM notification
		WHERE milestone_id = ? AND lead_days = ? AND occurrence_date = ?
	`
	notification, err = scanNotification(d.db.QueryRowContext(ctx, query, upsert.MilestoneID, upsert.LeadDays, upsert.OccurrenceDate))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load existing notification")
	}
	return notification, nil
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.MilestoneID != nil {
		where, args = append(where, "milestone_id = ?"), append(args, *find.MilestoneID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}
	if find.ScheduledBefore != nil {
		where, args = append(where, "scheduled_ts <= ?"), append(args, *find.ScheduledBefore)
	}

	query := `
		SELECT ` + notificationFields + `
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY scheduled_ts ASC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	list := []*store.Notification{}
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		list = append(list, notification)
	}

	return list, rows.Err()
}

// UpdateNotificationStatus transitions a row conditionally on its current
// status. sql.ErrNoRows means the caller lost the race (or the row is
// already terminal); only the winner of a claim proceeds to delivery.
func (d *DB) UpdateNotificationStatus(ctx context.Context, update *store.UpdateNotificationStatus) (*store.Notification, error) {
	set, args := []string{"status = ?"}, []any{update.Status}

	if update.SentTs != nil {
		set, args = append(set, "sent_ts = ?"), append(args, *update.SentTs)
	}
	if update.ViewedTs != nil {
		set, args = append(set, "viewed_ts = ?"), append(args, *update.ViewedTs)
	}
	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID, update.ExpectedStatus)

	stmt := `
		UPDATE notification
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ? AND status = ?
		RETURNING ` + notificationFields

	notification, err := scanNotification(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, errors.Wrap(err, "failed to update notification status")
	}
	return notification, nil
}

func (d *DB) CancelNotificationsForMilestone(ctx context.Context, milestoneID int32) (int64, error) {
	stmt := `
		UPDATE notification
		SET status = 'cancelled', updated_ts = ?
		WHERE milestone_id = ? AND status IN ('pending', 'claimed')
	`
	result, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), milestoneID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to cancel notifications")
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (d *DB) ListNotificationHistory(ctx context.Context, userID int32, limit int) ([]*store.NotificationHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT n.id, n.uid, n.user_id, n.milestone_id, n.lead_days, n.occurrence_date, n.scheduled_ts, n.status, n.sent_ts, n.viewed_ts, n.created_ts, n.updated_ts,
			COALESCE(m.name, ''), COALESCE(m.type, ''), COALESCE(m.date, ''),
			(SELECT COUNT(*) FROM recommendation r WHERE r.milestone_id = n.milestone_id)
		FROM notification n
		LEFT JOIN milestone m ON m.id = n.milestone_id
		WHERE n.user_id = ?
		ORDER BY n.scheduled_ts DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notification history")
	}
	defer rows.Close()

	list := []*store.NotificationHistoryEntry{}
	for rows.Next() {
		var n store.Notification
		entry := &store.NotificationHistoryEntry{}
		if err := rows.Scan(
			&n.ID,
			&n.UID,
			&n.UserID,
			&n.MilestoneID,
			&n.LeadDays,
			&n.OccurrenceDate,
			&n.ScheduledTs,
			&n.Status,
			&n.SentTs,
			&n.ViewedTs,
			&n.CreatedTs,
			&n.UpdatedTs,
			&entry.MilestoneName,
			&entry.MilestoneType,
			&entry.MilestoneDate,
			&entry.RecommendationCount,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification history")
		}
		entry.Notification = &n
		list = append(list, entry)
	}

	return list, rows.Err()
}

func scanNotification(s rowScanner) (*store.Notification, error) {
	var n store.Notification
	if err := s.Scan(
		&n.ID,
		&n.UID,
		&n.UserID,
		&n.MilestoneID,
		&n.LeadDays,
		&n.OccurrenceDate,
		&n.ScheduledTs,
		&n.Status,
		&n.SentTs,
		&n.ViewedTs,
		&n.CreatedTs,
		&n.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
