// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package database provides the DuckDB data layer behind the recommendation engine.

It implements the engine's read contract (recommend.DataProvider) over the
marketplace tables and persists tracked interactions (recommend.InteractionStore).

# Tables

	users               id, role, verified
	producers           business_name, approved
	product             price, quantity, category (NULL reads as "General")
	orders              user_id, total_amount, created_at
	order_items         order_id, product_id
	cart_items          user_id, product_id
	user_interactions   event_id (unique), action_type, interaction_score, session_id

The storefront owns every table except user_interactions. New creates them
when missing so a fresh file or an in-memory database is usable directly.

# Reads

  - FetchUserAggregates: order count, average order amount, cart size and
    days since the most recent order (365 when the user never ordered)
  - FetchProductRow: price and stock for one product
  - FetchCandidateProducts: in-stock products from approved producers the
    user has not bought, ordered by id, at most 100
  - FetchTrainingSnapshot: the user x product cross join scored 5/3/1 per
    joined order, cart and other row, plus tracked interaction scores
  - RecordPopularityCounts: order-item counts per product, descending

Absent users and products return (nil, nil). Failed reads wrap
recommend.ErrDataUnavailable.

# Circuit Breaker

BreakerProvider decorates any DataProvider with sony/gobreaker. An open
circuit fails reads immediately with recommend.ErrDataUnavailable so the
engine falls back to popularity without waiting on a struggling database.

# Thread Safety

DB is safe for concurrent use. Each query runs under its own timeout.
*/
package database
