package sqlite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) CreateFeedback(ctx context.Context, create *store.CreateFeedback) (*store.Feedback, error) {
	now := time.Now().Unix()

	stmt := `
		INSERT INTO feedback (user_id, recommendation_id, action, rating, created_ts)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	feedback := &store.Feedback{
		UserID:           create.UserID,
		RecommendationID: create.RecommendationID,
		Action:           create.Action,
		Rating:           create.Rating,
		CreatedTs:        now,
	}
	err := d.db.QueryRowContext(ctx, stmt, create.UserID, create.RecommendationID, create.Action, create.Rating, now).
		Scan(&feedback.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create feedback")
	}

	return feedback, nil
}

func (d *DB) ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := feedbackConditions(find, "")

	query := `
		SELECT id, user_id, recommendation_id, action, rating, created_ts
		FROM feedback
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback")
	}
	defer rows.Close()

	list := []*store.Feedback{}
	for rows.Next() {
		var feedback store.Feedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.UserID,
			&feedback.RecommendationID,
			&feedback.Action,
			&feedback.Rating,
			&feedback.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback")
		}
		list = append(list, &feedback)
	}

	return list, rows.Err()
}

// ListFeedbackWithRecommendations joins each feedback event with the
// attribute arrays of the recommendation it references.
func (d *DB) ListFeedbackWithRecommendations(ctx context.Context, find *store.FindFeedback) ([]*store.FeedbackWithRecommendation, error) {
	where, args := feedbackConditions(find, "f.")

	query := `
		SELECT f.id, f.user_id, f.recommendation_id, f.action, f.rating, f.created_ts,
			r.kind, r.interests, r.vibes, r.love_languages
		FROM feedback f
		INNER JOIN recommendation r ON r.id = f.recommendation_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY f.created_ts ASC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback with recommendations")
	}
	defer rows.Close()

	list := []*store.FeedbackWithRecommendation{}
	for rows.Next() {
		var feedback store.Feedback
		entry := &store.FeedbackWithRecommendation{}
		var interests, vibes, languages string
		if err := rows.Scan(
			&feedback.ID,
			&feedback.UserID,
			&feedback.RecommendationID,
			&feedback.Action,
			&feedback.Rating,
			&feedback.CreatedTs,
			&entry.Kind,
			&interests,
			&vibes,
			&languages,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback with recommendation")
		}
		if err := json.Unmarshal([]byte(interests), &entry.Interests); err != nil {
			return nil, errors.Wrap(err, "failed to decode interests")
		}
		if err := json.Unmarshal([]byte(vibes), &entry.Vibes); err != nil {
			return nil, errors.Wrap(err, "failed to decode vibes")
		}
		if err := json.Unmarshal([]byte(languages), &entry.LoveLanguages); err != nil {
			return nil, errors.Wrap(err, "failed to decode love languages")
		}
		entry.Feedback = &feedback
		list = append(list, entry)
	}

	return list, rows.Err()
}

func feedbackConditions(find *store.FindFeedback, prefix string) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UserID != nil {
		where, args = append(where, prefix+"user_id = ?"), append(args, *find.UserID)
	}
	if find.CreatedAfter != nil {
		where, args = append(where, prefix+"created_ts > ?"), append(args, *find.CreatedAfter)
	}
	return where, args
}
