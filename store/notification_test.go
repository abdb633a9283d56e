package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationStateMachine(t *testing.T) {
	tests := []struct {
		from    NotificationStatus
		to      NotificationStatus
		allowed bool
	}{
		{NotificationPending, NotificationClaimed, true},
		{NotificationPending, NotificationSent, true},
		{NotificationPending, NotificationFailed, true},
		{NotificationPending, NotificationCancelled, true},
		{NotificationClaimed, NotificationSent, true},
		{NotificationClaimed, NotificationFailed, true},
		{NotificationClaimed, NotificationCancelled, true},
		{NotificationClaimed, NotificationPending, false},
		{NotificationSent, NotificationPending, false},
		{NotificationSent, NotificationFailed, false},
		{NotificationFailed, NotificationClaimed, false},
		{NotificationCancelled, NotificationPending, false},
		{NotificationCancelled, NotificationSent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestNotificationStatusIsTerminal(t *testing.T) {
	assert.False(t, NotificationPending.IsTerminal())
	assert.False(t, NotificationClaimed.IsTerminal())
	assert.True(t, NotificationSent.IsTerminal())
	assert.True(t, NotificationFailed.IsTerminal())
	assert.True(t, NotificationCancelled.IsTerminal())
}

func TestUpsertNotificationValidate(t *testing.T) {
	valid := UpsertNotification{
		UserID:         1,
		MilestoneID:    2,
		LeadDays:       14,
		OccurrenceDate: "2025-06-10",
		ScheduledTs:    1748250000,
	}
	require.NoError(t, valid.Validate())

	badLead := valid
	badLead.LeadDays = 5
	assert.Error(t, badLead.Validate())

	badDate := valid
	badDate.OccurrenceDate = "June 10"
	assert.Error(t, badDate.Validate())

	noTs := valid
	noTs.ScheduledTs = 0
	assert.Error(t, noTs.Validate())
}
