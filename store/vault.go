package store

import (
	"github.com/pkg/errors"
)

// Vault is the aggregate root holding one partner profile and everything
// derived from it. Exactly one vault exists per user, enforced by a unique
// constraint on user_id. Deleting a vault cascades to interests, vibe tags,
// love languages, budgets, milestones, hints and recommendations, and cancels
// any still-pending notifications.
type Vault struct {
	ID          int32
	UID         string
	UserID      int32
	PartnerName string
	// RelationshipStart is the relationship start date (YYYY-MM-DD), used
	// for tenure display and anniversary defaults.
	RelationshipStart string
	Cohabiting        bool
	Location          string
	CreatedTs         int64
	UpdatedTs         int64
}

// CreateVault specifies the data for creating a vault.
type CreateVault struct {
	UID               string
	UserID            int32
	PartnerName       string
	RelationshipStart string
	Cohabiting        bool
	Location          string
}

// FindVault specifies the conditions for finding vaults.
type FindVault struct {
	ID     *int32
	UID    *string
	UserID *int32
}

// UpdateVault specifies the data for updating a vault.
type UpdateVault struct {
	ID                int32
	PartnerName       *string
	RelationshipStart *string
	Cohabiting        *bool
	Location          *string
}

func (c *CreateVault) Validate() error {
	if c.UserID <= 0 {
		return errors.Errorf("invalid user id: %d", c.UserID)
	}
	if c.PartnerName == "" {
		return errors.New("partner name cannot be empty")
	}
	if c.RelationshipStart != "" {
		if _, err := ParseDate(c.RelationshipStart); err != nil {
			return errors.Wrap(err, "invalid relationship start date")
		}
	}
	return nil
}
