// Package notify schedules and delivers milestone reminder notifications.
// The Scheduler owns the notification state machine; the Worker drives the
// periodic claim-and-deliver cycle.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/util"
	"github.com/ronniejay22/Knot-APP-sub003/notify/push"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// DefaultSendHour is the local hour reminders target before quiet-hours
// adjustment.
const DefaultSendHour = 9

// schedulerStore is the slice of the store the scheduler touches.
type schedulerStore interface {
	UpsertNotification(ctx context.Context, upsert *store.UpsertNotification) (*store.Notification, error)
	ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error)
	UpdateNotificationStatus(ctx context.Context, update *store.UpdateNotificationStatus) (*store.Notification, error)
	CancelNotificationsForMilestone(ctx context.Context, milestoneID int32) (int64, error)
	GetNotificationSettings(ctx context.Context, find *store.FindNotificationSettings) (*store.NotificationSettings, error)
	GetMilestone(ctx context.Context, find *store.FindMilestone) (*store.Milestone, error)
}

// Scheduler maintains the pending notification set for milestones and
// performs delivery through the push transport.
type Scheduler struct {
	store       schedulerStore
	pusher      push.Pusher
	pushTimeout time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler creates a Scheduler. A non-positive push timeout defaults
// to 10 seconds.
func NewScheduler(s schedulerStore, pusher push.Pusher, pushTimeout time.Duration) *Scheduler {
	if pushTimeout <= 0 {
		pushTimeout = 10 * time.Second
	}
	return &Scheduler{
		store:       s,
		pusher:      pusher,
		pushTimeout: pushTimeout,
		now:         time.Now,
	}
}

// ScheduleFor ensures one pending notification exists per reachable lead
// time for the milestone's next occurrence. Recomputation is idempotent:
// the (milestone, lead days, occurrence date) key absorbs unchanged
// schedules, and rows that already reached a terminal state stay untouched.
func (s *Scheduler) ScheduleFor(ctx context.Context, milestone *store.Milestone, userID int32) error {
	return s.schedule(ctx, milestone, userID, "")
}

// schedule writes the pending rows for the milestone's next occurrence.
// A non-empty afterDate is an exclusive floor: the chosen occurrence must
// fall strictly after it, which is how recurrence rollover targets next
// year while the terminal rows for the date just handled still exist.
func (s *Scheduler) schedule(ctx context.Context, milestone *store.Milestone, userID int32, afterDate string) error {
	settings, err := s.store.GetNotificationSettings(ctx, &store.FindNotificationSettings{UserID: userID})
	if err != nil {
		return errors.Wrap(err, "failed to load notification settings")
	}

	loc := time.UTC
	var quietStart, quietEnd int32
	if settings != nil {
		if settings.Timezone != "" {
			if l, err := time.LoadLocation(settings.Timezone); err == nil {
				loc = l
			} else {
				slog.Warn("invalid timezone in settings, falling back to UTC", "user", userID, "timezone", settings.Timezone)
			}
		}
		quietStart, quietEnd = settings.QuietStart, settings.QuietEnd
	}

	now := s.now().In(loc)
	occurrence, err := nextOccurrence(milestone.Date, milestone.Recurrence, now, loc)
	if err != nil {
		return err
	}
	for afterDate != "" && occurrence.Format(store.DateLayout) <= afterDate {
		if milestone.Recurrence != store.RecurrenceYearly {
			return nil
		}
		occurrence = occurrence.AddDate(1, 0, 0)
	}

	// A yearly occurrence whose lead targets have all passed gets one roll
	// forward, so scheduling close to the date still covers next year.
	for attempt := 0; attempt < 2; attempt++ {
		scheduled, err := s.scheduleOccurrence(ctx, milestone, userID, occurrence, now, quietStart, quietEnd, loc)
		if err != nil {
			return err
		}
		if scheduled > 0 || milestone.Recurrence != store.RecurrenceYearly {
			return nil
		}
		occurrence = occurrence.AddDate(1, 0, 0)
	}
	return nil
}

// scheduleOccurrence upserts one pending row per still-reachable lead time
// and reports how many were written.
func (s *Scheduler) scheduleOccurrence(ctx context.Context, milestone *store.Milestone, userID int32, occurrence, now time.Time, quietStart, quietEnd int32, loc *time.Location) (int, error) {
	occurrenceDate := occurrence.Format(store.DateLayout)

	scheduled := 0
	for _, lead := range store.LeadTimes {
		target := occurrence.AddDate(0, 0, -int(lead))
		target = time.Date(target.Year(), target.Month(), target.Day(), DefaultSendHour, 0, 0, 0, loc)
		target = shiftOutOfQuietWindow(target, quietStart, quietEnd)

		// Occurrence too close; never backdate.
		if !target.After(now) {
			continue
		}

		if _, err := s.store.UpsertNotification(ctx, &store.UpsertNotification{
			UserID:         userID,
			MilestoneID:    milestone.ID,
			LeadDays:       lead,
			OccurrenceDate: occurrenceDate,
			ScheduledTs:    target.Unix(),
		}); err != nil {
			return scheduled, errors.Wrapf(err, "failed to schedule %d-day notification", lead)
		}
		scheduled++
	}
	return scheduled, nil
}

// CancelFor cancels every still-live notification for a milestone. Invoked
// on milestone deletion and before rescheduling a changed date.
func (s *Scheduler) CancelFor(ctx context.Context, milestoneID int32) error {
	if _, err := s.store.CancelNotificationsForMilestone(ctx, milestoneID); err != nil {
		return err
	}
	return nil
}

// DueNotifications returns pending rows scheduled at or before now,
// ascending, for the worker to claim.
func (s *Scheduler) DueNotifications(ctx context.Context, now time.Time, limit int) ([]*store.Notification, error) {
	ts := now.Unix()
	status := store.NotificationPending
	return s.store.ListNotifications(ctx, &store.FindNotification{
		Status:          &status,
		ScheduledBefore: &ts,
		Limit:           limit,
	})
}

// Deliver pushes a claimed notification, records the terminal outcome on
// the row and returns the status it reached. A disabled user toggle
// cancels without touching the transport. Transport failure (including
// timeout) lands in failed; the scheduler never retries on its own.
func (s *Scheduler) Deliver(ctx context.Context, notification *store.Notification) (store.NotificationStatus, error) {
	if notification.Status.IsTerminal() {
		return notification.Status, errors.Errorf("notification %d already terminal (%s)", notification.ID, notification.Status)
	}

	settings, err := s.store.GetNotificationSettings(ctx, &store.FindNotificationSettings{UserID: notification.UserID})
	if err != nil {
		return notification.Status, errors.Wrap(err, "failed to load notification settings")
	}
	if settings == nil || !settings.Enabled || settings.DeviceToken == "" {
		if _, err := s.transition(ctx, notification, store.NotificationCancelled, nil); err != nil {
			return notification.Status, err
		}
		return store.NotificationCancelled, nil
	}

	payload := s.buildPayload(ctx, notification)

	pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()
	pushErr := s.pusher.Push(pushCtx, settings.DeviceToken, settings.Platform, payload)

	if pushErr != nil {
		if _, err := s.transition(ctx, notification, store.NotificationFailed, nil); err != nil {
			return notification.Status, err
		}
		return store.NotificationFailed, errors.Wrapf(pushErr, "delivery of notification %d failed", notification.ID)
	}

	sentTs := s.now().Unix()
	if _, err := s.transition(ctx, notification, store.NotificationSent, &sentTs); err != nil {
		return notification.Status, err
	}
	return store.NotificationSent, nil
}

// RescheduleRecurrences schedules the occurrence after the one the
// terminal notification belongs to, for yearly milestones. The floor on
// the occurrence date matters: at delivery time the current occurrence is
// still days away, so an unfloored recompute would resolve to it, find
// every lead target in the past and write nothing, and next year's rows
// would never exist. One-time milestones are left alone.
func (s *Scheduler) RescheduleRecurrences(ctx context.Context, notification *store.Notification) error {
	milestone, err := s.store.GetMilestone(ctx, &store.FindMilestone{ID: &notification.MilestoneID})
	if err != nil {
		return err
	}
	if milestone == nil || milestone.Recurrence != store.RecurrenceYearly {
		return nil
	}
	return s.schedule(ctx, milestone, notification.UserID, notification.OccurrenceDate)
}

func (s *Scheduler) transition(ctx context.Context, notification *store.Notification, to store.NotificationStatus, sentTs *int64) (*store.Notification, error) {
	if !store.CanTransition(notification.Status, to) {
		return nil, errors.Errorf("illegal transition %s -> %s for notification %d", notification.Status, to, notification.ID)
	}
	updated, err := s.store.UpdateNotificationStatus(ctx, &store.UpdateNotificationStatus{
		ID:             notification.ID,
		ExpectedStatus: notification.Status,
		Status:         to,
		SentTs:         sentTs,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to transition notification %d to %s", notification.ID, to)
	}
	return updated, nil
}

func (s *Scheduler) buildPayload(ctx context.Context, notification *store.Notification) *push.Payload {
	name := "your milestone"
	if milestone, err := s.store.GetMilestone(ctx, &store.FindMilestone{ID: &notification.MilestoneID}); err == nil && milestone != nil {
		name = milestone.Name
	}
	return &push.Payload{
		DeliveryID:     util.GenUUID(),
		Title:          fmt.Sprintf("%s is coming up", name),
		Body:           fmt.Sprintf("%s is %d days away (%s). Time to plan something special.", name, notification.LeadDays, notification.OccurrenceDate),
		MilestoneName:  name,
		LeadDays:       notification.LeadDays,
		OccurrenceDate: notification.OccurrenceDate,
	}
}

// nextOccurrence resolves the milestone date to its next occurrence in the
// given location. One-time milestones use the date as is; yearly milestones
// roll to next year once this year's date has passed.
func nextOccurrence(date string, recurrence store.Recurrence, now time.Time, loc *time.Location) (time.Time, error) {
	parsed, err := store.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}

	if recurrence == store.RecurrenceOneTime {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
	}

	occurrence := time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if occurrence.Before(today) {
		occurrence = time.Date(now.Year()+1, parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)
	}
	return occurrence, nil
}

// shiftOutOfQuietWindow moves a target instant out of the quiet window.
// Quiet hours are minutes from local midnight with an exclusive end; a
// start equal to end disables the window. Windows crossing midnight shift
// the pre-midnight arm to the next day's quiet end.
func shiftOutOfQuietWindow(target time.Time, quietStart, quietEnd int32) time.Time {
	if quietStart == quietEnd {
		return target
	}
	minutes := int32(target.Hour()*60 + target.Minute())

	endOfQuiet := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), int(quietEnd)/60, int(quietEnd)%60, 0, 0, day.Location())
	}

	if quietStart < quietEnd {
		if minutes >= quietStart && minutes < quietEnd {
			return endOfQuiet(target)
		}
		return target
	}

	// Window crosses midnight.
	switch {
	case minutes >= quietStart:
		return endOfQuiet(target.AddDate(0, 0, 1))
	case minutes < quietEnd:
		return endOfQuiet(target)
	default:
		return target
	}
}
