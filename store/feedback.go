package store

import (
	"github.com/pkg/errors"
)

// FeedbackAction is the closed set of user actions on a recommendation.
type FeedbackAction string

const (
	ActionSelected  FeedbackAction = "selected"
	ActionRefreshed FeedbackAction = "refreshed"
	ActionSaved     FeedbackAction = "saved"
	ActionShared    FeedbackAction = "shared"
	ActionRated     FeedbackAction = "rated"
	ActionHandedOff FeedbackAction = "handed_off"
	ActionPurchased FeedbackAction = "purchased"
)

var feedbackActions = map[FeedbackAction]bool{
	ActionSelected: true, ActionRefreshed: true, ActionSaved: true,
	ActionShared: true, ActionRated: true, ActionHandedOff: true,
	ActionPurchased: true,
}

// Feedback is an append-only event recording a user action on a
// recommendation. It has no synchronous effect on scoring; the weight
// learner folds it in on its next batch run.
type Feedback struct {
	ID               int64
	UserID           int32
	RecommendationID int32
	Action           FeedbackAction
	// Rating is set only for ActionRated, range 1-5.
	Rating    *int32
	CreatedTs int64
}

// CreateFeedback specifies the data for appending a feedback event.
type CreateFeedback struct {
	UserID           int32
	RecommendationID int32
	Action           FeedbackAction
	Rating           *int32
}

// FindFeedback specifies the conditions for finding feedback events.
type FindFeedback struct {
	UserID       *int32
	CreatedAfter *int64
	Limit        int
}

// FeedbackWithRecommendation joins a feedback event with the attribute
// arrays of the recommendation it references, which the weight learner
// partitions by dimension.
type FeedbackWithRecommendation struct {
	Feedback      *Feedback
	Kind          RecommendationKind
	Interests     []string
	Vibes         []string
	LoveLanguages []string
}

func (c *CreateFeedback) Validate() error {
	if c.UserID <= 0 {
		return errors.Errorf("invalid user id: %d", c.UserID)
	}
	if c.RecommendationID <= 0 {
		return errors.Errorf("invalid recommendation id: %d", c.RecommendationID)
	}
	if !feedbackActions[c.Action] {
		return errors.Errorf("unknown feedback action %q", c.Action)
	}
	if c.Action == ActionRated {
		if c.Rating == nil || *c.Rating < 1 || *c.Rating > 5 {
			return errors.New("rated feedback requires a rating in [1, 5]")
		}
	}
	return nil
}
