package store

import (
	"github.com/pkg/errors"
)

// MinutesPerDay bounds quiet-hours values (minutes from local midnight).
const MinutesPerDay = 1440

// NotificationSettings holds a user's delivery preferences. Quiet hours are
// minutes from local midnight in the user's timezone; start == end disables
// the window. The schema carries a single device token per user, so delivery
// does not fan out across devices.
type NotificationSettings struct {
	UserID      int32
	DeviceToken string
	Platform    string // "ios", "android", "telegram", "webhook"
	Timezone    string // IANA zone name, e.g. "America/New_York"
	QuietStart  int32  // minutes from midnight, inclusive
	QuietEnd    int32  // minutes from midnight, exclusive
	Enabled     bool
	CreatedTs   int64
	UpdatedTs   int64
}

// UpsertNotificationSettings specifies the data for upserting settings.
type UpsertNotificationSettings struct {
	UserID      int32
	DeviceToken string
	Platform    string
	Timezone    string
	QuietStart  int32
	QuietEnd    int32
	Enabled     bool
}

// FindNotificationSettings specifies the conditions for finding settings.
type FindNotificationSettings struct {
	UserID int32
}

func (u *UpsertNotificationSettings) Validate() error {
	if u.UserID <= 0 {
		return errors.Errorf("invalid user id: %d", u.UserID)
	}
	if u.QuietStart < 0 || u.QuietStart >= MinutesPerDay {
		return errors.Errorf("quiet hours start out of range: %d", u.QuietStart)
	}
	if u.QuietEnd < 0 || u.QuietEnd >= MinutesPerDay {
		return errors.Errorf("quiet hours end out of range: %d", u.QuietEnd)
	}
	if u.Timezone != "" {
		if err := ValidateTimezone(u.Timezone); err != nil {
			return err
		}
	}
	return nil
}
