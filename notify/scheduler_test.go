package notify

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronniejay22/Knot-APP-sub003/notify/push"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// mockNotifyStore is a pure in-memory stand-in for the notification slice
// of the store, including the conditional-update claim semantics.
type mockNotifyStore struct {
	mu            sync.Mutex
	nextID        int32
	notifications map[int32]*store.Notification
	settings      map[int32]*store.NotificationSettings
	milestones    map[int32]*store.Milestone
}

func newMockNotifyStore() *mockNotifyStore {
	return &mockNotifyStore{
		notifications: map[int32]*store.Notification{},
		settings:      map[int32]*store.NotificationSettings{},
		milestones:    map[int32]*store.Milestone{},
	}
}

func (m *mockNotifyStore) UpsertNotification(_ context.Context, upsert *store.UpsertNotification) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.MilestoneID == upsert.MilestoneID && n.LeadDays == upsert.LeadDays && n.OccurrenceDate == upsert.OccurrenceDate {
			if n.Status == store.NotificationPending {
				n.ScheduledTs = upsert.ScheduledTs
			}
			copied := *n
			return &copied, nil
		}
	}

	m.nextID++
	n := &store.Notification{
		ID:             m.nextID,
		UserID:         upsert.UserID,
		MilestoneID:    upsert.MilestoneID,
		LeadDays:       upsert.LeadDays,
		OccurrenceDate: upsert.OccurrenceDate,
		ScheduledTs:    upsert.ScheduledTs,
		Status:         store.NotificationPending,
	}
	m.notifications[n.ID] = n
	copied := *n
	return &copied, nil
}

func (m *mockNotifyStore) ListNotifications(_ context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []*store.Notification{}
	for _, n := range m.notifications {
		if find.Status != nil && n.Status != *find.Status {
			continue
		}
		if find.MilestoneID != nil && n.MilestoneID != *find.MilestoneID {
			continue
		}
		if find.ScheduledBefore != nil && n.ScheduledTs > *find.ScheduledBefore {
			continue
		}
		copied := *n
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ScheduledTs < list[j].ScheduledTs })
	if find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

func (m *mockNotifyStore) UpdateNotificationStatus(_ context.Context, update *store.UpdateNotificationStatus) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[update.ID]
	if !ok || n.Status != update.ExpectedStatus {
		return nil, sql.ErrNoRows
	}
	n.Status = update.Status
	if update.SentTs != nil {
		n.SentTs = update.SentTs
	}
	copied := *n
	return &copied, nil
}

func (m *mockNotifyStore) CancelNotificationsForMilestone(_ context.Context, milestoneID int32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cancelled int64
	for _, n := range m.notifications {
		if n.MilestoneID == milestoneID && !n.Status.IsTerminal() {
			n.Status = store.NotificationCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (m *mockNotifyStore) GetNotificationSettings(_ context.Context, find *store.FindNotificationSettings) (*store.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[find.UserID], nil
}

func (m *mockNotifyStore) GetMilestone(_ context.Context, find *store.FindMilestone) (*store.Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if find.ID == nil {
		return nil, nil
	}
	return m.milestones[*find.ID], nil
}

type mockPusher struct {
	mu    sync.Mutex
	calls []push.Payload
	err   error
}

func (m *mockPusher) Push(_ context.Context, deviceToken string, platform string, payload *push.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, *payload)
	return nil
}

func (m *mockPusher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func enabledSettings(userID int32, quietStart, quietEnd int32) *store.NotificationSettings {
	return &store.NotificationSettings{
		UserID:      userID,
		DeviceToken: "123456",
		Platform:    "telegram",
		Timezone:    "UTC",
		QuietStart:  quietStart,
		QuietEnd:    quietEnd,
		Enabled:     true,
	}
}

func birthdayMilestone(id int32) *store.Milestone {
	return &store.Milestone{
		ID:         id,
		UID:        "bday",
		VaultID:    1,
		Type:       store.MilestoneBirthday,
		Name:       "Sam's birthday",
		Date:       "2025-06-10",
		Recurrence: store.RecurrenceYearly,
	}
}

func TestScheduleForBirthdayScenario(t *testing.T) {
	// birthday 2025-06-10, now 2025-05-01, quiet 22:00-08:00, send hour
	// 09:00: the 14-day reminder lands on 2025-05-27T09:00.
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 22*60, 8*60)
	milestone := birthdayMilestone(10)
	s.milestones[10] = milestone

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byLead := map[int32]*store.Notification{}
	for _, n := range rows {
		byLead[n.LeadDays] = n
		assert.Equal(t, "2025-06-10", n.OccurrenceDate)
		assert.Equal(t, store.NotificationPending, n.Status)
	}
	assert.Equal(t, time.Date(2025, 5, 27, 9, 0, 0, 0, time.UTC).Unix(), byLead[14].ScheduledTs)
	assert.Equal(t, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC).Unix(), byLead[7].ScheduledTs)
	assert.Equal(t, time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC).Unix(), byLead[3].ScheduledTs)
}

func TestScheduleForIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))
	first, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))
	second, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)

	require.Len(t, second, 3, "recompute must not create duplicates")
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].ScheduledTs, second[i].ScheduledTs)
	}
}

func TestScheduleForSkipsPastLeadTimes(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	// 5 days before the occurrence: 14- and 7-day targets are in the past.
	scheduler.now = fixedNow(time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC))

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))
	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int32(3), rows[0].LeadDays)
}

func TestScheduleForNeverLandsInQuietWindow(t *testing.T) {
	ctx := context.Background()
	quietStart, quietEnd := int32(22*60), int32(8*60)
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, quietStart, quietEnd)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	dates := []string{"2025-03-15", "2025-06-10", "2025-12-25", "2025-02-28"}
	for i, date := range dates {
		milestone := &store.Milestone{
			ID:         int32(100 + i),
			VaultID:    1,
			Type:       store.MilestoneCustom,
			Name:       "m",
			Date:       date,
			Recurrence: store.RecurrenceOneTime,
		}
		require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))
	}

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, n := range rows {
		local := time.Unix(n.ScheduledTs, 0).UTC()
		minutes := int32(local.Hour()*60 + local.Minute())
		inQuiet := minutes >= quietStart || minutes < quietEnd
		assert.False(t, inQuiet, "notification %d scheduled at %s inside quiet window", n.ID, local)
	}
}

func TestShiftOutOfQuietWindow(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name       string
		target     time.Time
		quietStart int32
		quietEnd   int32
		want       time.Time
	}{
		{
			name:       "pre-midnight arm shifts to next day's end",
			target:     time.Date(2025, 5, 27, 23, 0, 0, 0, loc),
			quietStart: 22 * 60,
			quietEnd:   8 * 60,
			want:       time.Date(2025, 5, 28, 8, 0, 0, 0, loc),
		},
		{
			name:       "post-midnight arm shifts to same day's end",
			target:     time.Date(2025, 5, 27, 7, 0, 0, 0, loc),
			quietStart: 22 * 60,
			quietEnd:   8 * 60,
			want:       time.Date(2025, 5, 27, 8, 0, 0, 0, loc),
		},
		{
			name:       "outside window unchanged",
			target:     time.Date(2025, 5, 27, 9, 0, 0, 0, loc),
			quietStart: 22 * 60,
			quietEnd:   8 * 60,
			want:       time.Date(2025, 5, 27, 9, 0, 0, 0, loc),
		},
		{
			name:       "quiet end boundary is exclusive",
			target:     time.Date(2025, 5, 27, 8, 0, 0, 0, loc),
			quietStart: 22 * 60,
			quietEnd:   8 * 60,
			want:       time.Date(2025, 5, 27, 8, 0, 0, 0, loc),
		},
		{
			name:       "same-day window",
			target:     time.Date(2025, 5, 27, 13, 0, 0, 0, loc),
			quietStart: 12 * 60,
			quietEnd:   14 * 60,
			want:       time.Date(2025, 5, 27, 14, 0, 0, 0, loc),
		},
		{
			name:       "start equals end disables",
			target:     time.Date(2025, 5, 27, 9, 0, 0, 0, loc),
			quietStart: 9 * 60,
			quietEnd:   9 * 60,
			want:       time.Date(2025, 5, 27, 9, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shiftOutOfQuietWindow(tt.target, tt.quietStart, tt.quietEnd)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC

	t.Run("yearly rolls to next year after passing", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 12, 0, 0, 0, loc)
		occurrence, err := nextOccurrence("2024-06-10", store.RecurrenceYearly, now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 6, 10, 0, 0, 0, 0, loc), occurrence)
	})

	t.Run("yearly keeps this year before the date", func(t *testing.T) {
		now := time.Date(2025, 5, 1, 12, 0, 0, 0, loc)
		occurrence, err := nextOccurrence("2020-06-10", store.RecurrenceYearly, now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, loc), occurrence)
	})

	t.Run("occurrence today stays today", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 6, 0, 0, 0, loc)
		occurrence, err := nextOccurrence("2020-06-10", store.RecurrenceYearly, now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, loc), occurrence)
	})

	t.Run("one time uses the date as is", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, loc)
		occurrence, err := nextOccurrence("2025-06-10", store.RecurrenceOneTime, now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, loc), occurrence)
	})
}

func TestScheduleForYearlyRecurrenceCreatesFreshRows(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)
	s.milestones[10] = milestone

	scheduler := NewScheduler(s, &mockPusher{}, 0)

	// A sent row from this year's occurrence already exists.
	sentTs := time.Date(2025, 6, 7, 9, 5, 0, 0, time.UTC).Unix()
	seed, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10",
		ScheduledTs:    time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC).Unix(),
	})
	require.NoError(t, err)
	_, err = s.UpdateNotificationStatus(ctx, &store.UpdateNotificationStatus{
		ID: seed.ID, ExpectedStatus: store.NotificationPending,
		Status: store.NotificationSent, SentTs: &sentTs,
	})
	require.NoError(t, err)

	// Scheduling after the occurrence passed targets next year.
	scheduler.now = fixedNow(time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var sent, pending2026 int
	for _, n := range rows {
		switch {
		case n.Status == store.NotificationSent:
			sent++
			assert.Equal(t, "2025-06-10", n.OccurrenceDate, "sent row must stay untouched")
		case n.Status == store.NotificationPending:
			pending2026++
			assert.Equal(t, "2026-06-10", n.OccurrenceDate)
		}
	}
	assert.Equal(t, 1, sent)
	assert.Equal(t, 3, pending2026)
}

func TestScheduleForRollsForwardWhenNoLeadReachable(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	// The day before the occurrence: every lead target this year is past.
	scheduler.now = fixedNow(time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC))

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, n := range rows {
		assert.Equal(t, "2026-06-10", n.OccurrenceDate)
	}
}

func TestScheduleForOneTimeNeverRollsForward(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := &store.Milestone{
		ID:         11,
		VaultID:    1,
		Type:       store.MilestoneCustom,
		Name:       "housewarming",
		Date:       "2025-06-10",
		Recurrence: store.RecurrenceOneTime,
	}

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC))

	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRescheduleRecurrencesTargetsFollowingOccurrence(t *testing.T) {
	// At delivery time the current occurrence is still days away; the
	// recompute must not resolve back to it and write nothing.
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	s.milestones[10] = birthdayMilestone(10)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 6, 7, 9, 1, 0, 0, time.UTC))

	require.NoError(t, scheduler.RescheduleRecurrences(ctx, &store.Notification{
		ID: 1, UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", Status: store.NotificationSent,
	}))

	rows, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, n := range rows {
		assert.Equal(t, "2026-06-10", n.OccurrenceDate)
		assert.Equal(t, store.NotificationPending, n.Status)
	}
}

func TestCancelFor(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)

	scheduler := NewScheduler(s, &mockPusher{}, 0)
	scheduler.now = fixedNow(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	require.NoError(t, scheduler.CancelFor(ctx, 10))

	pending := store.NotificationPending
	rows, err := s.ListNotifications(ctx, &store.FindNotification{Status: &pending})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeliverSuccess(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	s.milestones[10] = birthdayMilestone(10)
	pusher := &mockPusher{}

	scheduler := NewScheduler(s, pusher, 0)
	now := time.Date(2025, 6, 7, 9, 1, 0, 0, time.UTC)
	scheduler.now = fixedNow(now)

	n, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", ScheduledTs: now.Unix(),
	})
	require.NoError(t, err)
	claimed, err := s.UpdateNotificationStatus(ctx, &store.UpdateNotificationStatus{
		ID: n.ID, ExpectedStatus: store.NotificationPending, Status: store.NotificationClaimed,
	})
	require.NoError(t, err)

	outcome, err := scheduler.Deliver(ctx, claimed)
	require.NoError(t, err)
	assert.Equal(t, store.NotificationSent, outcome)
	assert.Equal(t, 1, pusher.callCount())

	stored := s.notifications[n.ID]
	assert.Equal(t, store.NotificationSent, stored.Status)
	require.NotNil(t, stored.SentTs)
	assert.Equal(t, now.Unix(), *stored.SentTs)
	assert.Contains(t, pusher.calls[0].Body, "Sam's birthday")
	assert.NotEmpty(t, pusher.calls[0].DeliveryID)
}

func TestDeliverTransportFailure(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	pusher := &mockPusher{err: errors.New("transport down")}

	scheduler := NewScheduler(s, pusher, 0)

	n, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", ScheduledTs: 1,
	})
	require.NoError(t, err)
	claimed, err := s.UpdateNotificationStatus(ctx, &store.UpdateNotificationStatus{
		ID: n.ID, ExpectedStatus: store.NotificationPending, Status: store.NotificationClaimed,
	})
	require.NoError(t, err)

	outcome, err := scheduler.Deliver(ctx, claimed)
	require.Error(t, err)
	assert.Equal(t, store.NotificationFailed, outcome)
	assert.Equal(t, store.NotificationFailed, s.notifications[n.ID].Status)
	assert.Nil(t, s.notifications[n.ID].SentTs)
}

func TestDeliverDisabledToggleCancels(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	settings := enabledSettings(1, 0, 0)
	settings.Enabled = false
	s.settings[1] = settings
	pusher := &mockPusher{}

	scheduler := NewScheduler(s, pusher, 0)

	n, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", ScheduledTs: 1,
	})
	require.NoError(t, err)

	outcome, err := scheduler.Deliver(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, store.NotificationCancelled, outcome)
	assert.Equal(t, store.NotificationCancelled, s.notifications[n.ID].Status)
	assert.Zero(t, pusher.callCount(), "disabled toggle must not touch the transport")
}

func TestDeliverTerminalRowRejected(t *testing.T) {
	scheduler := NewScheduler(newMockNotifyStore(), &mockPusher{}, 0)
	_, err := scheduler.Deliver(context.Background(), &store.Notification{
		ID: 1, Status: store.NotificationSent,
	})
	assert.Error(t, err)
}
