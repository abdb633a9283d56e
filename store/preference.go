package store

import (
	"github.com/pkg/errors"
)

// InterestPolarity marks an interest as liked or disliked.
type InterestPolarity string

const (
	PolarityLike    InterestPolarity = "like"
	PolarityDislike InterestPolarity = "dislike"
)

// InterestCategory is the closed set of interest categories.
type InterestCategory string

const (
	InterestCooking   InterestCategory = "cooking"
	InterestTravel    InterestCategory = "travel"
	InterestFitness   InterestCategory = "fitness"
	InterestReading   InterestCategory = "reading"
	InterestMusic     InterestCategory = "music"
	InterestArt       InterestCategory = "art"
	InterestGaming    InterestCategory = "gaming"
	InterestFashion   InterestCategory = "fashion"
	InterestOutdoors  InterestCategory = "outdoors"
	InterestTech      InterestCategory = "tech"
	InterestWellness  InterestCategory = "wellness"
	InterestGardening InterestCategory = "gardening"
)

var interestCategories = map[InterestCategory]bool{
	InterestCooking: true, InterestTravel: true, InterestFitness: true,
	InterestReading: true, InterestMusic: true, InterestArt: true,
	InterestGaming: true, InterestFashion: true, InterestOutdoors: true,
	InterestTech: true, InterestWellness: true, InterestGardening: true,
}

// VibeTagValue is the closed set of aesthetic vibe tags.
type VibeTagValue string

const (
	VibeCozy        VibeTagValue = "cozy"
	VibeAdventurous VibeTagValue = "adventurous"
	VibeRomantic    VibeTagValue = "romantic"
	VibeMinimalist  VibeTagValue = "minimalist"
	VibeLuxurious   VibeTagValue = "luxurious"
	VibePlayful     VibeTagValue = "playful"
	VibeClassic     VibeTagValue = "classic"
	VibeArtsy       VibeTagValue = "artsy"
	VibeSporty      VibeTagValue = "sporty"
	VibePractical   VibeTagValue = "practical"
)

var vibeTagValues = map[VibeTagValue]bool{
	VibeCozy: true, VibeAdventurous: true, VibeRomantic: true,
	VibeMinimalist: true, VibeLuxurious: true, VibePlayful: true,
	VibeClassic: true, VibeArtsy: true, VibeSporty: true, VibePractical: true,
}

// LoveLanguageValue is the closed set of love languages.
type LoveLanguageValue string

const (
	LoveWordsOfAffirmation LoveLanguageValue = "words_of_affirmation"
	LoveQualityTime        LoveLanguageValue = "quality_time"
	LoveReceivingGifts     LoveLanguageValue = "receiving_gifts"
	LoveActsOfService      LoveLanguageValue = "acts_of_service"
	LovePhysicalTouch      LoveLanguageValue = "physical_touch"
)

var loveLanguageValues = map[LoveLanguageValue]bool{
	LoveWordsOfAffirmation: true, LoveQualityTime: true,
	LoveReceivingGifts: true, LoveActsOfService: true, LovePhysicalTouch: true,
}

// LoveLanguageRank distinguishes the primary from the secondary love language.
// A vault carries exactly one of each.
type LoveLanguageRank string

const (
	RankPrimary   LoveLanguageRank = "primary"
	RankSecondary LoveLanguageRank = "secondary"
)

// Interest is a liked or disliked category scoped to a vault. A category
// cannot carry both polarities at once; the unique (vault_id, category) key
// makes the latest polarity win.
type Interest struct {
	ID        int32
	VaultID   int32
	Category  InterestCategory
	Polarity  InterestPolarity
	CreatedTs int64
}

// VibeTag is an aesthetic preference tag scoped to a vault.
type VibeTag struct {
	ID        int32
	VaultID   int32
	Tag       VibeTagValue
	CreatedTs int64
}

// LoveLanguage is a ranked love language scoped to a vault.
type LoveLanguage struct {
	ID        int32
	VaultID   int32
	Language  LoveLanguageValue
	Rank      LoveLanguageRank
	CreatedTs int64
}

// Budget is a price tier range per (vault, occasion type). Invariant:
// max >= min >= 0, checked before persistence.
type Budget struct {
	ID           int32
	VaultID      int32
	OccasionType MilestoneType
	MinCents     int64
	MaxCents     int64
	CreatedTs    int64
	UpdatedTs    int64
}

// UpsertInterest specifies the data for upserting an interest.
type UpsertInterest struct {
	VaultID  int32
	Category InterestCategory
	Polarity InterestPolarity
}

// UpsertVibeTag specifies the data for upserting a vibe tag.
type UpsertVibeTag struct {
	VaultID int32
	Tag     VibeTagValue
}

// UpsertLoveLanguage specifies the data for upserting a ranked love language.
// The unique (vault_id, rank) key keeps exactly one primary and one secondary.
type UpsertLoveLanguage struct {
	VaultID  int32
	Language LoveLanguageValue
	Rank     LoveLanguageRank
}

// UpsertBudget specifies the data for upserting a budget range.
type UpsertBudget struct {
	VaultID      int32
	OccasionType MilestoneType
	MinCents     int64
	MaxCents     int64
}

func (u *UpsertInterest) Validate() error {
	if !interestCategories[u.Category] {
		return errors.Errorf("unknown interest category %q", u.Category)
	}
	if u.Polarity != PolarityLike && u.Polarity != PolarityDislike {
		return errors.Errorf("unknown interest polarity %q", u.Polarity)
	}
	return nil
}

func (u *UpsertVibeTag) Validate() error {
	if !vibeTagValues[u.Tag] {
		return errors.Errorf("unknown vibe tag %q", u.Tag)
	}
	return nil
}

func (u *UpsertLoveLanguage) Validate() error {
	if !loveLanguageValues[u.Language] {
		return errors.Errorf("unknown love language %q", u.Language)
	}
	if u.Rank != RankPrimary && u.Rank != RankSecondary {
		return errors.Errorf("unknown love language rank %q", u.Rank)
	}
	return nil
}

func (u *UpsertBudget) Validate() error {
	if !milestoneTypes[u.OccasionType] {
		return errors.Errorf("unknown occasion type %q", u.OccasionType)
	}
	if u.MinCents < 0 || u.MaxCents < u.MinCents {
		return errors.Errorf("invalid budget range [%d, %d]", u.MinCents, u.MaxCents)
	}
	return nil
}

// VaultProfile bundles the static preference facts of a vault for scoring.
type VaultProfile struct {
	VaultID   int32
	UserID    int32
	Likes     []InterestCategory
	Dislikes  []InterestCategory
	Vibes     []VibeTagValue
	Primary   LoveLanguageValue
	Secondary LoveLanguageValue
}
