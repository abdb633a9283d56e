package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBudgetTier(t *testing.T) {
	tests := []struct {
		milestoneType MilestoneType
		want          BudgetTier
	}{
		{MilestoneBirthday, TierGenerous},
		{MilestoneAnniversary, TierGenerous},
		{MilestoneValentines, TierComfortable},
		{MilestoneChristmas, TierComfortable},
		{MilestoneMothersDay, TierModest},
		{MilestoneFathersDay, TierModest},
		{MilestoneCustom, TierModest},
	}

	for _, tt := range tests {
		t.Run(string(tt.milestoneType), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultBudgetTier(tt.milestoneType))
		})
	}
}

func TestCreateMilestoneValidate(t *testing.T) {
	valid := CreateMilestone{
		VaultID:    1,
		Type:       MilestoneBirthday,
		Name:       "Sam's birthday",
		Date:       "2025-06-10",
		Recurrence: RecurrenceYearly,
	}
	assert.NoError(t, valid.Validate())

	badType := valid
	badType.Type = "graduation"
	assert.Error(t, badType.Validate())

	badDate := valid
	badDate.Date = "10/06/2025"
	assert.Error(t, badDate.Validate())

	badRecurrence := valid
	badRecurrence.Recurrence = "monthly"
	assert.Error(t, badRecurrence.Validate())
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("America/New_York"))
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone("Mars/Olympus_Mons"))
}
