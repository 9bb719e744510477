// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the marketplace tables read by the recommender.
// The storefront owns these tables in production; the recommender only
// writes user_interactions.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		email VARCHAR,
		role VARCHAR NOT NULL DEFAULT 'CUSTOMER',
		verified BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS producers (
		id BIGINT PRIMARY KEY,
		user_id BIGINT,
		business_name VARCHAR NOT NULL,
		location VARCHAR,
		approved BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS product (
		id BIGINT PRIMARY KEY,
		producer_id BIGINT NOT NULL,
		name VARCHAR NOT NULL,
		description VARCHAR,
		price DOUBLE NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		category VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		total_amount DOUBLE NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		unit_price DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE SEQUENCE IF NOT EXISTS user_interactions_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS user_interactions (
		id BIGINT PRIMARY KEY DEFAULT nextval('user_interactions_id_seq'),
		event_id VARCHAR NOT NULL UNIQUE,
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		action_type VARCHAR NOT NULL,
		interaction_score DOUBLE NOT NULL,
		session_id VARCHAR,
		created_at TIMESTAMP NOT NULL
	)`,
}

// indexStatements cover the per-user lookups on the request path.
var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_product_producer ON product(producer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user_product ON user_interactions(user_id, product_id)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
