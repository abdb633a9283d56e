package store

import (
	"context"
)

// Driver is an interface for database driver.
type Driver interface {
	GetDB() any
	Close() error
	Migrate(ctx context.Context) error

	// Vault
	CreateVault(ctx context.Context, create *CreateVault) (*Vault, error)
	ListVaults(ctx context.Context, find *FindVault) ([]*Vault, error)
	UpdateVault(ctx context.Context, update *UpdateVault) (*Vault, error)
	// DeleteVault removes the vault and everything it owns, cancelling
	// pending notifications before the rows disappear.
	DeleteVault(ctx context.Context, id int32) error

	// Preference facts
	UpsertInterest(ctx context.Context, upsert *UpsertInterest) (*Interest, error)
	ListInterests(ctx context.Context, vaultID int32) ([]*Interest, error)
	DeleteInterest(ctx context.Context, vaultID int32, category InterestCategory) error
	UpsertVibeTag(ctx context.Context, upsert *UpsertVibeTag) (*VibeTag, error)
	ListVibeTags(ctx context.Context, vaultID int32) ([]*VibeTag, error)
	DeleteVibeTag(ctx context.Context, vaultID int32, tag VibeTagValue) error
	UpsertLoveLanguage(ctx context.Context, upsert *UpsertLoveLanguage) (*LoveLanguage, error)
	ListLoveLanguages(ctx context.Context, vaultID int32) ([]*LoveLanguage, error)
	UpsertBudget(ctx context.Context, upsert *UpsertBudget) (*Budget, error)
	ListBudgets(ctx context.Context, vaultID int32) ([]*Budget, error)

	// Milestone
	CreateMilestone(ctx context.Context, create *CreateMilestone) (*Milestone, error)
	ListMilestones(ctx context.Context, find *FindMilestone) ([]*Milestone, error)
	UpdateMilestone(ctx context.Context, update *UpdateMilestone) (*Milestone, error)
	DeleteMilestone(ctx context.Context, id int32) error

	// Hint
	CreateHint(ctx context.Context, create *CreateHint) (*Hint, error)
	ListHints(ctx context.Context, find *FindHint) ([]*Hint, error)
	UpdateHintEmbedding(ctx context.Context, id int32, embedding []float32) error
	MarkHintsUsed(ctx context.Context, ids []int32) error
	HintVectorSearch(ctx context.Context, opts *HintVectorSearchOptions) ([]*HintWithScore, error)

	// Recommendation
	CreateRecommendation(ctx context.Context, create *CreateRecommendation) (*Recommendation, error)
	ListRecommendations(ctx context.Context, find *FindRecommendation) ([]*Recommendation, error)

	// Feedback
	CreateFeedback(ctx context.Context, create *CreateFeedback) (*Feedback, error)
	ListFeedback(ctx context.Context, find *FindFeedback) ([]*Feedback, error)
	ListFeedbackWithRecommendations(ctx context.Context, find *FindFeedback) ([]*FeedbackWithRecommendation, error)

	// Preference weights
	GetPreferenceWeights(ctx context.Context, find *FindPreferenceWeights) (*PreferenceWeights, error)
	UpsertPreferenceWeights(ctx context.Context, upsert *UpsertPreferenceWeights) (*PreferenceWeights, error)

	// Notification
	UpsertNotification(ctx context.Context, upsert *UpsertNotification) (*Notification, error)
	ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error)
	UpdateNotificationStatus(ctx context.Context, update *UpdateNotificationStatus) (*Notification, error)
	CancelNotificationsForMilestone(ctx context.Context, milestoneID int32) (int64, error)
	ListNotificationHistory(ctx context.Context, userID int32, limit int) ([]*NotificationHistoryEntry, error)

	// Notification settings
	GetNotificationSettings(ctx context.Context, find *FindNotificationSettings) (*NotificationSettings, error)
	UpsertNotificationSettings(ctx context.Context, upsert *UpsertNotificationSettings) (*NotificationSettings, error)
}
