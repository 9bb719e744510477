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

	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// DefaultCandidateLimit caps the candidate query when no limit is set.
const DefaultCandidateLimit = 100

// noOrderDays is reported for users that never ordered.
const noOrderDays = 365

// SetCandidateLimit sets how many candidates one query returns. Values below
// 1 restore DefaultCandidateLimit. It must match the engine's candidate cap.
func (db *DB) SetCandidateLimit(n int) {
	if n < 1 {
		n = DefaultCandidateLimit
	}
	db.candidateLimit = n
}

// FetchUserAggregates returns order and cart aggregates for a user.
// Returns nil, nil when the user does not exist.
func (db *DB) FetchUserAggregates(ctx context.Context, userID int64) (agg *recommend.UserAggregates, err error) {
	start := time.Now()
	defer func() { observe("user_aggregates", start, err) }()

	query := `
		SELECT
			u.id,
			u.role,
			(SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id) AS order_count,
			(SELECT COALESCE(AVG(o.total_amount), 0) FROM orders o WHERE o.user_id = u.id) AS avg_amount,
			(SELECT COUNT(*) FROM cart_items ci WHERE ci.user_id = u.id) AS cart_items,
			(SELECT date_diff('day', MAX(o.created_at), CAST(? AS TIMESTAMP)) FROM orders o WHERE o.user_id = u.id) AS days_since_order
		FROM users u
		WHERE u.id = ?
	`

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var (
		out  recommend.UserAggregates
		days sql.NullInt64
	)
	err = db.conn.QueryRowContext(ctx, query, db.now().UTC(), userID).Scan(
		&out.UserID, &out.Role, &out.OrderCount, &out.AvgOrderAmount, &out.CartItemCount, &days)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("query user aggregates", err)
	}

	out.DaysSinceLastOrder = noOrderDays
	if days.Valid {
		out.DaysSinceLastOrder = float64(max(days.Int64, 0))
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user row: %w", err)
	}
	return &out, nil
}

// FetchProductRow returns catalog attributes for a product.
// Returns nil, nil when the product does not exist.
func (db *DB) FetchProductRow(ctx context.Context, productID int64) (row *recommend.ProductRow, err error) {
	start := time.Now()
	defer func() { observe("product_row", start, err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var out recommend.ProductRow
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, price, quantity FROM product WHERE id = ?`, productID,
	).Scan(&out.ProductID, &out.Price, &out.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("query product", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid product row: %w", err)
	}
	return &out, nil
}

// FetchCandidateProducts returns in-stock products from approved producers
// that the user has not purchased, in catalog order.
func (db *DB) FetchCandidateProducts(ctx context.Context, userID int64) (candidates []recommend.CandidateProduct, err error) {
	start := time.Now()
	defer func() { observe("candidate_products", start, err) }()

	query := `
		SELECT
			p.id,
			p.name,
			COALESCE(p.description, '') AS description,
			p.price,
			pr.business_name,
			COALESCE(p.category, 'General') AS category,
			p.quantity
		FROM product p
		JOIN producers pr ON p.producer_id = pr.id
		WHERE p.quantity > 0
		  AND pr.approved = true
		  AND p.id NOT IN (
			  SELECT oi.product_id FROM order_items oi
			  JOIN orders o ON oi.order_id = o.id
			  WHERE o.user_id = ?
		  )
		ORDER BY p.id
		LIMIT ?
	`

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	limit := db.candidateLimit
	if limit < 1 {
		limit = DefaultCandidateLimit
	}
	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, unavailable("query candidates", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c recommend.CandidateProduct
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Description, &c.Price, &c.ProducerName, &c.Category, &c.Quantity); err != nil {
			return nil, unavailable("scan candidate", err)
		}
		row := c.Row()
		if err := row.Validate(); err != nil {
			logging.Warn().Err(err).Int64("product_id", c.ProductID).Msg("Skipping invalid candidate row")
			continue
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate candidates", err)
	}
	return candidates, nil
}

// FetchTrainingSnapshot returns at most limit joined (user, product) rows.
// Each row's score sums 5 per joined order row containing the product,
// 3 when the product sits in the cart, else 1, plus tracked interaction scores.
func (db *DB) FetchTrainingSnapshot(ctx context.Context, limit int) (out []recommend.TrainingRow, err error) {
	start := time.Now()
	defer func() { observe("training_snapshot", start, err) }()

	query := `
		WITH base AS (
			SELECT
				u.id AS user_id,
				u.role,
				p.id AS product_id,
				p.price,
				p.quantity,
				COUNT(DISTINCT o.id) AS orders,
				COALESCE(AVG(o.total_amount), 0) AS avg_amount,
				CAST(SUM(CASE WHEN oi.id IS NOT NULL THEN 5
				              WHEN ci.id IS NOT NULL THEN 3
				              ELSE 1 END) AS DOUBLE) AS score
			FROM users u
			CROSS JOIN product p
			LEFT JOIN orders o ON u.id = o.user_id
			LEFT JOIN order_items oi ON o.id = oi.order_id AND p.id = oi.product_id
			LEFT JOIN cart_items ci ON u.id = ci.user_id AND p.id = ci.product_id
			WHERE u.verified = true AND p.quantity > 0
			GROUP BY u.id, u.role, p.id, p.price, p.quantity
		),
		tracked AS (
			SELECT user_id, product_id, CAST(SUM(interaction_score) AS DOUBLE) AS tracked_score
			FROM user_interactions
			GROUP BY user_id, product_id
		)
		SELECT
			b.user_id, b.role, b.product_id, b.price, b.quantity, b.orders, b.avg_amount,
			b.score + COALESCE(t.tracked_score, 0) AS score
		FROM base b
		LEFT JOIN tracked t ON t.user_id = b.user_id AND t.product_id = b.product_id
		WHERE b.score > 0
		ORDER BY b.user_id, b.product_id
		LIMIT ?
	`

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, unavailable("query training snapshot", err)
	}
	defer rows.Close()

	skipped := 0
	for rows.Next() {
		var r recommend.TrainingRow
		if err := rows.Scan(&r.UserID, &r.Role, &r.ProductID, &r.Price, &r.Quantity,
			&r.OrderCount, &r.AvgOrderAmount, &r.InteractionScore); err != nil {
			return nil, unavailable("scan training row", err)
		}
		if err := r.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate training snapshot", err)
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("Dropped invalid training rows")
	}
	return out, nil
}

// RecordPopularityCounts returns in-stock products from approved producers
// ordered by order-item count, descending, ties by product id.
func (db *DB) RecordPopularityCounts(ctx context.Context, limit int) (out []recommend.PopularProduct, err error) {
	start := time.Now()
	defer func() { observe("popularity_counts", start, err) }()

	query := `
		SELECT
			p.id,
			p.name,
			COALESCE(p.description, '') AS description,
			p.price,
			pr.business_name,
			COALESCE(p.category, 'General') AS category,
			COUNT(oi.id) AS popularity
		FROM product p
		JOIN producers pr ON p.producer_id = pr.id
		LEFT JOIN order_items oi ON p.id = oi.product_id
		WHERE p.quantity > 0 AND pr.approved = true
		GROUP BY p.id, p.name, p.description, p.price, pr.business_name, p.category
		ORDER BY popularity DESC, p.id
		LIMIT ?
	`

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, unavailable("query popularity", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     recommend.PopularProduct
			count int64
		)
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Description, &p.Price, &p.ProducerName, &p.Category, &count); err != nil {
			return nil, unavailable("scan popular product", err)
		}
		p.PopularityCount = float64(count)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate popularity", err)
	}
	return out, nil
}

var _ recommend.DataProvider = (*DB)(nil)
