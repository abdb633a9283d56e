package store

import (
	"github.com/pkg/errors"
)

// RecommendationKind is the closed set of generated artifact kinds.
type RecommendationKind string

const (
	KindGift       RecommendationKind = "gift"
	KindExperience RecommendationKind = "experience"
	KindDate       RecommendationKind = "date"
	KindIdea       RecommendationKind = "idea"
)

var recommendationKinds = map[RecommendationKind]bool{
	KindGift: true, KindExperience: true, KindDate: true, KindIdea: true,
}

// Recommendation is a scored, generated artifact linked to a vault and
// optionally to a milestone. Immutable after creation except for downstream
// feedback linkage and hint consumption on confirmed selection.
type Recommendation struct {
	ID          int32
	UID         string
	VaultID     int32
	MilestoneID *int32
	Kind        RecommendationKind
	Title       string
	Description string
	// Attribute arrays used by the weight learner to partition feedback.
	Interests     []string
	Vibes         []string
	LoveLanguages []string
	// Per-dimension scores and the ranked composite.
	InterestScore     float64
	VibeScore         float64
	LoveLanguageScore float64
	CompositeScore    float64
	// HintIDs are the unused hints whose similarity boosted this
	// recommendation; they are marked used only on confirmed selection.
	HintIDs   []int32
	Embedding []float32
	CreatedTs int64
}

// CreateRecommendation specifies the data for creating a recommendation.
type CreateRecommendation struct {
	UID               string
	VaultID           int32
	MilestoneID       *int32
	Kind              RecommendationKind
	Title             string
	Description       string
	Interests         []string
	Vibes             []string
	LoveLanguages     []string
	InterestScore     float64
	VibeScore         float64
	LoveLanguageScore float64
	CompositeScore    float64
	HintIDs           []int32
	Embedding         []float32
}

// FindRecommendation specifies the conditions for finding recommendations.
type FindRecommendation struct {
	ID          *int32
	UID         *string
	VaultID     *int32
	MilestoneID *int32
	Limit       int
}

func (c *CreateRecommendation) Validate() error {
	if c.VaultID <= 0 {
		return errors.Errorf("invalid vault id: %d", c.VaultID)
	}
	if !recommendationKinds[c.Kind] {
		return errors.Errorf("unknown recommendation kind %q", c.Kind)
	}
	if c.Title == "" {
		return errors.New("recommendation title cannot be empty")
	}
	return nil
}
