package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

func (d *DB) CreateFeedback(ctx context.Context, create *store.CreateFeedback) (*store.Feedback, error) {
	now := time.Now().Unix()

	stmt := `
		INSERT INTO feedback (user_id, recommendation_id, action, rating, created_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id
	`

	feedback := &store.Feedback{
		UserID:           create.UserID,
		RecommendationID: create.RecommendationID,
		Action:           create.Action,
		Rating:           create.Rating,
		CreatedTs:        now,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.RecommendationID,
		create.Action,
		create.Rating,
		now,
	).Scan(&feedback.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create feedback")
	}

	return feedback, nil
}

func (d *DB) ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts > "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}

	query := `
		SELECT id, user_id, recommendation_id, action, rating, created_ts
		FROM feedback
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ` + placeholder(len(args))
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

// ListFeedbackWithRecommendations joins feedback events with the attribute
// arrays of the referenced recommendation for the weight learner.
func (d *DB) ListFeedbackWithRecommendations(ctx context.Context, find *store.FindFeedback) ([]*store.FeedbackWithRecommendation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "f.user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "f.created_ts > "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}

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
		query += ` LIMIT ` + placeholder(len(args))
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
		if err := rows.Scan(
			&feedback.ID,
			&feedback.UserID,
			&feedback.RecommendationID,
			&feedback.Action,
			&feedback.Rating,
			&feedback.CreatedTs,
			&entry.Kind,
			pq.Array(&entry.Interests),
			pq.Array(&entry.Vibes),
			pq.Array(&entry.LoveLanguages),
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback join")
		}
		entry.Feedback = &feedback
		list = append(list, entry)
	}

	return list, rows.Err()
}
