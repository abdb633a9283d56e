package store

import (
	"github.com/pkg/errors"
)

// MilestoneType is the closed set of tracked occasion types.
type MilestoneType string

const (
	MilestoneBirthday    MilestoneType = "birthday"
	MilestoneAnniversary MilestoneType = "anniversary"
	MilestoneValentines  MilestoneType = "valentines_day"
	MilestoneMothersDay  MilestoneType = "mothers_day"
	MilestoneFathersDay  MilestoneType = "fathers_day"
	MilestoneChristmas   MilestoneType = "christmas"
	MilestoneCustom      MilestoneType = "custom"
)

var milestoneTypes = map[MilestoneType]bool{
	MilestoneBirthday: true, MilestoneAnniversary: true,
	MilestoneValentines: true, MilestoneMothersDay: true,
	MilestoneFathersDay: true, MilestoneChristmas: true, MilestoneCustom: true,
}

// Recurrence describes whether a milestone repeats.
type Recurrence string

const (
	RecurrenceYearly  Recurrence = "yearly"
	RecurrenceOneTime Recurrence = "one_time"
)

// BudgetTier is a coarse spend band attached to a milestone.
type BudgetTier string

const (
	TierModest      BudgetTier = "modest"
	TierComfortable BudgetTier = "comfortable"
	TierGenerous    BudgetTier = "generous"
	TierLuxury      BudgetTier = "luxury"
)

// DefaultBudgetTier derives the budget tier for a milestone type. Applied at
// construction time unless the caller overrides it explicitly.
func DefaultBudgetTier(t MilestoneType) BudgetTier {
	switch t {
	case MilestoneBirthday, MilestoneAnniversary:
		return TierGenerous
	case MilestoneValentines, MilestoneChristmas:
		return TierComfortable
	default:
		return TierModest
	}
}

// Milestone is a date-bearing event under a vault. It is created by the user,
// read by the scheduler on every scheduling pass, and never auto-deleted
// except through cascading vault deletion.
type Milestone struct {
	ID         int32
	UID        string
	VaultID    int32
	Type       MilestoneType
	Name       string
	Date       string // YYYY-MM-DD
	Recurrence Recurrence
	BudgetTier BudgetTier
	CreatedTs  int64
	UpdatedTs  int64
}

// CreateMilestone specifies the data for creating a milestone.
type CreateMilestone struct {
	UID        string
	VaultID    int32
	Type       MilestoneType
	Name       string
	Date       string
	Recurrence Recurrence
	// BudgetTier overrides the type default when non-empty.
	BudgetTier BudgetTier
}

// FindMilestone specifies the conditions for finding milestones.
type FindMilestone struct {
	ID      *int32
	UID     *string
	VaultID *int32
}

// UpdateMilestone specifies the data for updating a milestone.
type UpdateMilestone struct {
	ID         int32
	Name       *string
	Date       *string
	Recurrence *Recurrence
	BudgetTier *BudgetTier
}

func (c *CreateMilestone) Validate() error {
	if c.VaultID <= 0 {
		return errors.Errorf("invalid vault id: %d", c.VaultID)
	}
	if !milestoneTypes[c.Type] {
		return errors.Errorf("unknown milestone type %q", c.Type)
	}
	if c.Name == "" {
		return errors.New("milestone name cannot be empty")
	}
	if _, err := ParseDate(c.Date); err != nil {
		return err
	}
	if c.Recurrence != RecurrenceYearly && c.Recurrence != RecurrenceOneTime {
		return errors.Errorf("unknown recurrence %q", c.Recurrence)
	}
	return nil
}

func (u *UpdateMilestone) Validate() error {
	if u.Date != nil {
		if _, err := ParseDate(*u.Date); err != nil {
			return err
		}
	}
	if u.Recurrence != nil && *u.Recurrence != RecurrenceYearly && *u.Recurrence != RecurrenceOneTime {
		return errors.Errorf("unknown recurrence %q", *u.Recurrence)
	}
	return nil
}
