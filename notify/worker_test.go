package notify

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func TestWorkerTickDeliversDueNotifications(t *testing.T) {
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	s.milestones[10] = birthdayMilestone(10)
	pusher := &mockPusher{}

	now := time.Date(2025, 6, 7, 9, 1, 0, 0, time.UTC)
	scheduler := NewScheduler(s, pusher, 0)
	scheduler.now = fixedNow(now)

	due, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", ScheduledTs: now.Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)
	// Not due yet; the tick must leave it pending.
	future, err := s.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 7,
		OccurrenceDate: "2025-06-10", ScheduledTs: now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	worker := NewWorker(s, scheduler, NewMetrics(nil), WorkerConfig{})
	worker.now = fixedNow(now)

	require.NoError(t, worker.Tick(ctx))

	assert.Equal(t, store.NotificationSent, s.notifications[due.ID].Status)
	assert.Equal(t, store.NotificationPending, s.notifications[future.ID].Status)
	assert.Equal(t, 1, pusher.callCount())
}

// lostClaimStore simulates another worker instance winning the claim.
type lostClaimStore struct {
	*mockNotifyStore
}

func (s *lostClaimStore) UpdateNotificationStatus(_ context.Context, _ *store.UpdateNotificationStatus) (*store.Notification, error) {
	return nil, sql.ErrNoRows
}

func TestWorkerClaimLossSkipsDelivery(t *testing.T) {
	ctx := context.Background()
	inner := newMockNotifyStore()
	inner.settings[1] = enabledSettings(1, 0, 0)
	pusher := &mockPusher{}

	now := time.Date(2025, 6, 7, 9, 1, 0, 0, time.UTC)
	scheduler := NewScheduler(inner, pusher, 0)
	scheduler.now = fixedNow(now)

	n, err := inner.UpsertNotification(ctx, &store.UpsertNotification{
		UserID: 1, MilestoneID: 10, LeadDays: 3,
		OccurrenceDate: "2025-06-10", ScheduledTs: now.Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	worker := NewWorker(&lostClaimStore{inner}, scheduler, NewMetrics(nil), WorkerConfig{})
	worker.now = fixedNow(now)

	require.NoError(t, worker.Tick(ctx))

	assert.Zero(t, pusher.callCount(), "a lost claim must not deliver")
	assert.Equal(t, store.NotificationPending, inner.notifications[n.ID].Status)
}

func TestWorkerYearlyRecurrenceLifecycle(t *testing.T) {
	// Drive the whole production path: schedule at creation, deliver each
	// lead time through worker ticks, and verify next year's pending rows
	// exist before this year's occurrence passes.
	ctx := context.Background()
	s := newMockNotifyStore()
	s.settings[1] = enabledSettings(1, 0, 0)
	milestone := birthdayMilestone(10)
	s.milestones[10] = milestone
	pusher := &mockPusher{}

	current := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	scheduler := NewScheduler(s, pusher, 0)
	scheduler.now = clock
	require.NoError(t, scheduler.ScheduleFor(ctx, milestone, 1))

	worker := NewWorker(s, scheduler, NewMetrics(nil), WorkerConfig{})
	worker.now = clock

	for _, instant := range []time.Time{
		time.Date(2025, 5, 27, 9, 1, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 9, 1, 0, 0, time.UTC),
		time.Date(2025, 6, 7, 9, 1, 0, 0, time.UTC),
	} {
		current = instant
		require.NoError(t, worker.Tick(ctx))
	}
	assert.Equal(t, 3, pusher.callCount())

	// All of 2025 delivered; the 2026 occurrence is already pending.
	pending := store.NotificationPending
	rows, err := s.ListNotifications(ctx, &store.FindNotification{Status: &pending})
	require.NoError(t, err)
	require.Len(t, rows, 3, "next year's rows must exist before the occurrence passes")
	for _, n := range rows {
		assert.Equal(t, "2026-06-10", n.OccurrenceDate)
	}

	// Next year's first lead delivers on schedule, with no duplicate rows
	// for the already-sent year.
	current = time.Date(2026, 5, 27, 9, 1, 0, 0, time.UTC)
	require.NoError(t, worker.Tick(ctx))
	assert.Equal(t, 4, pusher.callCount())

	sentByYear := map[string]int{}
	all, err := s.ListNotifications(ctx, &store.FindNotification{})
	require.NoError(t, err)
	for _, n := range all {
		if n.Status == store.NotificationSent {
			sentByYear[n.OccurrenceDate]++
		}
	}
	assert.Equal(t, 3, sentByYear["2025-06-10"])
	assert.Equal(t, 1, sentByYear["2026-06-10"])
}

func TestWorkerTickEmptyBacklog(t *testing.T) {
	s := newMockNotifyStore()
	scheduler := NewScheduler(s, &mockPusher{}, 0)
	worker := NewWorker(s, scheduler, NewMetrics(nil), WorkerConfig{})

	require.NoError(t, worker.Tick(context.Background()))
}
