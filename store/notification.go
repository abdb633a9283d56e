package store

import (
	"github.com/pkg/errors"
)

// NotificationStatus is the delivery lifecycle state of a notification.
// pending -> claimed -> {sent, failed}; pending -> cancelled.
// sent, failed and cancelled are terminal; no transition leaves them.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationClaimed   NotificationStatus = "claimed"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCancelled NotificationStatus = "cancelled"
)

// IsTerminal reports whether the status absorbs all further transitions.
func (s NotificationStatus) IsTerminal() bool {
	return s == NotificationSent || s == NotificationFailed || s == NotificationCancelled
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to NotificationStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch from {
	case NotificationPending:
		return to == NotificationClaimed || to == NotificationSent ||
			to == NotificationFailed || to == NotificationCancelled
	case NotificationClaimed:
		return to == NotificationSent || to == NotificationFailed || to == NotificationCancelled
	}
	return false
}

// LeadTimes are the days-before offsets a milestone fires notifications at.
var LeadTimes = []int32{14, 7, 3}

// Notification is a scheduled milestone reminder. One row exists per
// (user, milestone, lead time, occurrence date); the occurrence date in the
// key lets yearly recurrence create fresh rows without touching rows that
// already reached a terminal state.
type Notification struct {
	ID             int32
	UID            string
	UserID         int32
	MilestoneID    int32
	LeadDays       int32
	OccurrenceDate string // YYYY-MM-DD of the milestone occurrence
	ScheduledTs    int64
	Status         NotificationStatus
	SentTs         *int64
	ViewedTs       *int64
	CreatedTs      int64
	UpdatedTs      int64
}

// UpsertNotification writes or updates the row keyed by
// (milestone, lead days, occurrence date). Recomputation with an unchanged
// schedule is a no-op; rows in a terminal state are never resurrected.
type UpsertNotification struct {
	UID            string
	UserID         int32
	MilestoneID    int32
	LeadDays       int32
	OccurrenceDate string
	ScheduledTs    int64
}

// FindNotification specifies the conditions for finding notifications.
type FindNotification struct {
	ID              *int32
	UserID          *int32
	MilestoneID     *int32
	Status          *NotificationStatus
	ScheduledBefore *int64
	Limit           int
}

// UpdateNotificationStatus transitions a notification's status. The driver
// applies it conditionally on ExpectedStatus, so only one caller wins a
// claim even with multiple worker instances.
type UpdateNotificationStatus struct {
	ID             int32
	ExpectedStatus NotificationStatus
	Status         NotificationStatus
	SentTs         *int64
	ViewedTs       *int64
}

// NotificationHistoryEntry is a notification row joined with milestone
// display fields and a count of linked recommendations. Read-through only.
type NotificationHistoryEntry struct {
	Notification        *Notification
	MilestoneName       string
	MilestoneType       MilestoneType
	MilestoneDate       string
	RecommendationCount int32
}

func (u *UpsertNotification) Validate() error {
	if u.UserID <= 0 {
		return errors.Errorf("invalid user id: %d", u.UserID)
	}
	if u.MilestoneID <= 0 {
		return errors.Errorf("invalid milestone id: %d", u.MilestoneID)
	}
	valid := false
	for _, l := range LeadTimes {
		if u.LeadDays == l {
			valid = true
		}
	}
	if !valid {
		return errors.Errorf("invalid lead days: %d", u.LeadDays)
	}
	if _, err := ParseDate(u.OccurrenceDate); err != nil {
		return err
	}
	if u.ScheduledTs <= 0 {
		return errors.New("scheduled timestamp required")
	}
	return nil
}
