// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// RecordInteraction inserts a tracked interaction. Redelivered events with
// an already stored EventID are ignored.
func (db *DB) RecordInteraction(ctx context.Context, in *recommend.Interaction) (err error) {
	start := time.Now()
	defer func() { observe("record_interaction", start, err) }()

	if in == nil {
		return errors.New("interaction is nil")
	}
	if in.EventID == "" {
		return errors.New("interaction has no event id")
	}
	if !in.ActionType.Valid() {
		return fmt.Errorf("interaction %s: unknown action type %q", in.EventID, in.ActionType)
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.now()
	}
	var session sql.NullString
	if in.SessionID != "" {
		session = sql.NullString{String: in.SessionID, Valid: true}
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO user_interactions
			(event_id, user_id, product_id, action_type, interaction_score, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
	`, in.EventID, in.UserID, in.ProductID, string(in.ActionType), in.Score, session, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("insert interaction %s: %w", in.EventID, err)
	}
	return nil
}

// FetchInteractionStats summarizes a user's tracked interactions, their
// average order amount and the category they interact with most. Users
// without activity get zero counts.
func (db *DB) FetchInteractionStats(ctx context.Context, userID int64) (stats *recommend.InteractionStats, err error) {
	start := time.Now()
	defer func() { observe("interaction_stats", start, err) }()

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE action_type = 'VIEW') AS views,
			COUNT(*) FILTER (WHERE action_type = 'ADD_TO_CART') AS cart_adds,
			COUNT(*) FILTER (WHERE action_type = 'PURCHASE') AS purchases,
			COUNT(*) FILTER (WHERE action_type = 'FAVORITE') AS favorites,
			MAX(created_at) AS last_activity,
			(SELECT COALESCE(AVG(total_amount), 0) FROM orders WHERE user_id = ?) AS avg_spending,
			(
				SELECT p.category
				FROM user_interactions fi
				JOIN product p ON p.id = fi.product_id
				WHERE fi.user_id = ? AND p.category IS NOT NULL
				GROUP BY p.category
				ORDER BY COUNT(*) DESC, p.category
				LIMIT 1
			) AS favorite_category
		FROM user_interactions
		WHERE user_id = ?
	`

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var (
		out      recommend.InteractionStats
		last     sql.NullTime
		favorite sql.NullString
	)
	err = db.conn.QueryRowContext(ctx, query, userID, userID, userID).Scan(
		&out.Total, &out.Views, &out.CartAdds, &out.Purchases, &out.Favorites, &last, &out.AverageSpending, &favorite)
	if err != nil {
		return nil, unavailable("query interaction stats", err)
	}
	if last.Valid {
		t := last.Time.UTC()
		out.LastActivity = &t
	}
	out.FavoriteCategory = favorite.String
	return &out, nil
}

// CountInteractionsByType returns how many interactions of one type a user has.
func (db *DB) CountInteractionsByType(ctx context.Context, userID int64, action recommend.InteractionType) (count int64, err error) {
	start := time.Now()
	defer func() { observe("count_interactions", start, err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_interactions WHERE user_id = ? AND action_type = ?`,
		userID, string(action),
	).Scan(&count)
	if err != nil {
		return 0, unavailable("count interactions", err)
	}
	return count, nil
}

var _ recommend.InteractionStore = (*DB)(nil)
