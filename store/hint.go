package store

import (
	"github.com/pkg/errors"
)

// Hint is a free-text observation about the partner, with an optional
// embedding vector computed asynchronously by the external embedding
// collaborator. A nil embedding means the computation is still pending; such
// rows are excluded from similarity queries but remain usable for
// non-semantic matching. A hint is marked used once, when a recommendation
// that matched it is confirmed by the user.
type Hint struct {
	ID      int32
	UID     string
	VaultID int32
	Text    string
	// Embedding is nil until the backfill job persists a vector.
	Embedding []float32
	IsUsed    bool
	CreatedTs int64
	UpdatedTs int64
}

// CreateHint specifies the data for creating a hint.
type CreateHint struct {
	UID     string
	VaultID int32
	Text    string
}

// FindHint specifies the conditions for finding hints.
type FindHint struct {
	ID      *int32
	VaultID *int32
	IsUsed  *bool
	// HasEmbedding filters on embedding presence when set.
	HasEmbedding *bool
	Limit        int
}

// HintWithScore is a hint similarity search result. Score is a normalized
// cosine similarity in [0, 1], higher is more similar.
type HintWithScore struct {
	Hint  *Hint
	Score float32
}

// HintVectorSearchOptions specifies a hint similarity query.
type HintVectorSearchOptions struct {
	VaultID int32
	Vector  []float32
	Limit   int
	// MinScore drops results below this normalized similarity.
	MinScore float32
	// IncludeUsed also returns hints already consumed by a recommendation.
	IncludeUsed bool
}

// Validate validates the HintVectorSearchOptions.
func (o *HintVectorSearchOptions) Validate() error {
	if o.VaultID <= 0 {
		return errors.Errorf("invalid vault id: %d", o.VaultID)
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return errors.Errorf("min score out of range [0, 1]: %f", o.MinScore)
	}
	return nil
}

func (c *CreateHint) Validate() error {
	if c.VaultID <= 0 {
		return errors.Errorf("invalid vault id: %d", c.VaultID)
	}
	if c.Text == "" {
		return errors.New("hint text cannot be empty")
	}
	return nil
}
