package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ronniejay22/Knot-APP-sub003/internal/profile"
	"github.com/ronniejay22/Knot-APP-sub003/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache for per-user notification settings, read on every delivery.
	settingsCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		settingsCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.settingsCache.Close()
	return s.driver.Close()
}

// Vault

func (s *Store) CreateVault(ctx context.Context, create *CreateVault) (*Vault, error) {
	return s.driver.CreateVault(ctx, create)
}

func (s *Store) ListVaults(ctx context.Context, find *FindVault) ([]*Vault, error) {
	return s.driver.ListVaults(ctx, find)
}

// GetVault gets a single vault matching find, or nil when none matches.
func (s *Store) GetVault(ctx context.Context, find *FindVault) (*Vault, error) {
	list, err := s.driver.ListVaults(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateVault(ctx context.Context, update *UpdateVault) (*Vault, error) {
	return s.driver.UpdateVault(ctx, update)
}

func (s *Store) DeleteVault(ctx context.Context, id int32) error {
	return s.driver.DeleteVault(ctx, id)
}

// Preference facts

func (s *Store) UpsertInterest(ctx context.Context, upsert *UpsertInterest) (*Interest, error) {
	return s.driver.UpsertInterest(ctx, upsert)
}

func (s *Store) ListInterests(ctx context.Context, vaultID int32) ([]*Interest, error) {
	return s.driver.ListInterests(ctx, vaultID)
}

func (s *Store) DeleteInterest(ctx context.Context, vaultID int32, category InterestCategory) error {
	return s.driver.DeleteInterest(ctx, vaultID, category)
}

func (s *Store) UpsertVibeTag(ctx context.Context, upsert *UpsertVibeTag) (*VibeTag, error) {
	return s.driver.UpsertVibeTag(ctx, upsert)
}

func (s *Store) ListVibeTags(ctx context.Context, vaultID int32) ([]*VibeTag, error) {
	return s.driver.ListVibeTags(ctx, vaultID)
}

func (s *Store) DeleteVibeTag(ctx context.Context, vaultID int32, tag VibeTagValue) error {
	return s.driver.DeleteVibeTag(ctx, vaultID, tag)
}

func (s *Store) UpsertLoveLanguage(ctx context.Context, upsert *UpsertLoveLanguage) (*LoveLanguage, error) {
	return s.driver.UpsertLoveLanguage(ctx, upsert)
}

func (s *Store) ListLoveLanguages(ctx context.Context, vaultID int32) ([]*LoveLanguage, error) {
	return s.driver.ListLoveLanguages(ctx, vaultID)
}

func (s *Store) UpsertBudget(ctx context.Context, upsert *UpsertBudget) (*Budget, error) {
	return s.driver.UpsertBudget(ctx, upsert)
}

func (s *Store) ListBudgets(ctx context.Context, vaultID int32) ([]*Budget, error) {
	return s.driver.ListBudgets(ctx, vaultID)
}

// GetVaultProfile assembles the static preference facts of a vault for the
// scorer.
func (s *Store) GetVaultProfile(ctx context.Context, vaultID int32) (*VaultProfile, error) {
	vault, err := s.GetVault(ctx, &FindVault{ID: &vaultID})
	if err != nil {
		return nil, err
	}
	if vault == nil {
		return nil, nil
	}

	profile := &VaultProfile{VaultID: vaultID, UserID: vault.UserID}

	interests, err := s.driver.ListInterests(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	for _, it := range interests {
		if it.Polarity == PolarityLike {
			profile.Likes = append(profile.Likes, it.Category)
		} else {
			profile.Dislikes = append(profile.Dislikes, it.Category)
		}
	}

	vibes, err := s.driver.ListVibeTags(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	for _, v := range vibes {
		profile.Vibes = append(profile.Vibes, v.Tag)
	}

	languages, err := s.driver.ListLoveLanguages(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	for _, l := range languages {
		if l.Rank == RankPrimary {
			profile.Primary = l.Language
		} else {
			profile.Secondary = l.Language
		}
	}

	return profile, nil
}

// Milestone

func (s *Store) CreateMilestone(ctx context.Context, create *CreateMilestone) (*Milestone, error) {
	return s.driver.CreateMilestone(ctx, create)
}

func (s *Store) ListMilestones(ctx context.Context, find *FindMilestone) ([]*Milestone, error) {
	return s.driver.ListMilestones(ctx, find)
}

// GetMilestone gets a single milestone matching find, or nil when none matches.
func (s *Store) GetMilestone(ctx context.Context, find *FindMilestone) (*Milestone, error) {
	list, err := s.driver.ListMilestones(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateMilestone(ctx context.Context, update *UpdateMilestone) (*Milestone, error) {
	return s.driver.UpdateMilestone(ctx, update)
}

func (s *Store) DeleteMilestone(ctx context.Context, id int32) error {
	return s.driver.DeleteMilestone(ctx, id)
}

// Hint

func (s *Store) CreateHint(ctx context.Context, create *CreateHint) (*Hint, error) {
	return s.driver.CreateHint(ctx, create)
}

func (s *Store) ListHints(ctx context.Context, find *FindHint) ([]*Hint, error) {
	return s.driver.ListHints(ctx, find)
}

func (s *Store) UpdateHintEmbedding(ctx context.Context, id int32, embedding []float32) error {
	return s.driver.UpdateHintEmbedding(ctx, id, embedding)
}

func (s *Store) MarkHintsUsed(ctx context.Context, ids []int32) error {
	return s.driver.MarkHintsUsed(ctx, ids)
}

func (s *Store) HintVectorSearch(ctx context.Context, opts *HintVectorSearchOptions) ([]*HintWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.HintVectorSearch(ctx, opts)
}

// Recommendation

func (s *Store) CreateRecommendation(ctx context.Context, create *CreateRecommendation) (*Recommendation, error) {
	return s.driver.CreateRecommendation(ctx, create)
}

func (s *Store) ListRecommendations(ctx context.Context, find *FindRecommendation) ([]*Recommendation, error) {
	return s.driver.ListRecommendations(ctx, find)
}

// Feedback

func (s *Store) CreateFeedback(ctx context.Context, create *CreateFeedback) (*Feedback, error) {
	return s.driver.CreateFeedback(ctx, create)
}

func (s *Store) ListFeedback(ctx context.Context, find *FindFeedback) ([]*Feedback, error) {
	return s.driver.ListFeedback(ctx, find)
}

func (s *Store) ListFeedbackWithRecommendations(ctx context.Context, find *FindFeedback) ([]*FeedbackWithRecommendation, error) {
	return s.driver.ListFeedbackWithRecommendations(ctx, find)
}

// Preference weights

func (s *Store) GetPreferenceWeights(ctx context.Context, find *FindPreferenceWeights) (*PreferenceWeights, error) {
	return s.driver.GetPreferenceWeights(ctx, find)
}

func (s *Store) UpsertPreferenceWeights(ctx context.Context, upsert *UpsertPreferenceWeights) (*PreferenceWeights, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	return s.driver.UpsertPreferenceWeights(ctx, upsert)
}

// Notification

func (s *Store) UpsertNotification(ctx context.Context, upsert *UpsertNotification) (*Notification, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	return s.driver.UpsertNotification(ctx, upsert)
}

func (s *Store) ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error) {
	return s.driver.ListNotifications(ctx, find)
}

func (s *Store) UpdateNotificationStatus(ctx context.Context, update *UpdateNotificationStatus) (*Notification, error) {
	return s.driver.UpdateNotificationStatus(ctx, update)
}

func (s *Store) CancelNotificationsForMilestone(ctx context.Context, milestoneID int32) (int64, error) {
	return s.driver.CancelNotificationsForMilestone(ctx, milestoneID)
}

func (s *Store) ListNotificationHistory(ctx context.Context, userID int32, limit int) ([]*NotificationHistoryEntry, error) {
	return s.driver.ListNotificationHistory(ctx, userID, limit)
}

// Notification settings

func (s *Store) GetNotificationSettings(ctx context.Context, find *FindNotificationSettings) (*NotificationSettings, error) {
	key := settingsCacheKey(find.UserID)
	if v, ok := s.settingsCache.Get(key); ok {
		if settings, ok := v.(*NotificationSettings); ok {
			return settings, nil
		}
	}

	settings, err := s.driver.GetNotificationSettings(ctx, find)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		s.settingsCache.Set(key, settings)
	}
	return settings, nil
}

func (s *Store) UpsertNotificationSettings(ctx context.Context, upsert *UpsertNotificationSettings) (*NotificationSettings, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	settings, err := s.driver.UpsertNotificationSettings(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.settingsCache.Delete(settingsCacheKey(upsert.UserID))
	return settings, nil
}

func settingsCacheKey(userID int32) string {
	return fmt.Sprintf("notification_settings:%d", userID)
}
