package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) GetNotificationSettings(ctx context.Context, find *store.FindNotificationSettings) (*store.NotificationSettings, error) {
	query := `
		SELECT user_id, device_token, platform, timezone, quiet_start, quiet_end, enabled, created_ts, updated_ts
		FROM notification_settings
		WHERE user_id = ?
	`

	var settings store.NotificationSettings
	if err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&settings.UserID,
		&settings.DeviceToken,
		&settings.Platform,
		&settings.Timezone,
		&settings.QuietStart,
		&settings.QuietEnd,
		&settings.Enabled,
		&settings.CreatedTs,
		&settings.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get notification settings")
	}
	return &settings, nil
}

func (d *DB) UpsertNotificationSettings(ctx context.Context, upsert *store.UpsertNotificationSettings) (*store.NotificationSettings, error) {
	now := time.Now().Unix()

	stmt := `
		INSERT INTO notification_settings (user_id, device_token, platform, timezone, quiet_start, quiet_end, enabled, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET
			device_token = excluded.device_token,
			platform = excluded.platform,
			timezone = excluded.timezone,
			quiet_start = excluded.quiet_start,
			quiet_end = excluded.quiet_end,
			enabled = excluded.enabled,
			updated_ts = excluded.updated_ts
		RETURNING user_id, device_token, platform, timezone, quiet_start, quiet_end, enabled, created_ts, updated_ts
	`

	var settings store.NotificationSettings
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		upsert.DeviceToken,
		upsert.Platform,
		upsert.Timezone,
		upsert.QuietStart,
		upsert.QuietEnd,
		upsert.Enabled,
		now,
		now,
	).Scan(
		&settings.UserID,
		&settings.DeviceToken,
		&settings.Platform,
		&settings.Timezone,
		&settings.QuietStart,
		&settings.QuietEnd,
		&settings.Enabled,
		&settings.CreatedTs,
		&settings.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert notification settings")
	}
	return &settings, nil
}
