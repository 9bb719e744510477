// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// Demo dataset dimensions.
const (
	demoUsers         = 40
	demoOrdersPerUser = 4
	demoSeed          = 20260401
)

var demoProducers = []struct {
	name     string
	location string
	approved bool
}{
	{"Huerta del Valle", "Cusco", true},
	{"Cafe Altura", "Junin", true},
	{"Textiles Andinos", "Puno", true},
	{"AgroTec Maquinaria", "Lima", true},
	{"Pendiente SAC", "Lima", false},
}

var demoProducts = []struct {
	producer int
	name     string
	category string
	price    float64
	quantity int
}{
	{0, "Organic Quinoa 1kg", "Grains", 12.5, 80},
	{0, "Purple Corn 2kg", "Grains", 9.9, 60},
	{0, "Native Potatoes 5kg", "Produce", 15, 40},
	{0, "Avocado Box", "Produce", 28, 25},
	{0, "Maca Powder", "Superfoods", 22, 50},
	{1, "Single Origin Coffee 500g", "Coffee", 35, 70},
	{1, "Espresso Blend 1kg", "Coffee", 58, 30},
	{1, "Cacao Nibs", "Superfoods", 18, 45},
	{1, "Coffee Gift Set", "Coffee", 120, 10},
	{2, "Alpaca Scarf", "Textiles", 85, 20},
	{2, "Wool Poncho", "Textiles", 240, 8},
	{2, "Handwoven Blanket", "Textiles", 420, 5},
	{2, "Baby Alpaca Sweater", "Textiles", 310, 12},
	{3, "Irrigation Kit", "Equipment", 650, 6},
	{3, "Seed Drill", "Equipment", 1450, 3},
	{3, "Greenhouse Cover", "Equipment", 380, 9},
	{3, "Coffee Roaster", "Equipment", 1800, 2},
	{3, "Hand Tools Set", "", 95, 0},
	{4, "Unapproved Honey", "Produce", 14, 30},
}

// SeedDemoData fills an empty database with a small deterministic
// marketplace. It is a no-op when users already exist.
func (db *DB) SeedDemoData(ctx context.Context) error {
	var existing int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&existing); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if existing > 0 {
		logging.Debug().Int("users", existing).Msg("Database already populated, skipping demo seed")
		return nil
	}

	logging.Info().Msg("Seeding database with demo marketplace data...")

	rng := rand.New(rand.NewSource(demoSeed))
	now := db.now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := 1; i <= demoUsers; i++ {
		role := "CUSTOMER"
		if i%8 == 0 {
			role = recommend.RoleProducer
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, role, verified, created_at) VALUES (?, ?, ?, ?, ?)`,
			i, fmt.Sprintf("user%02d@example.com", i), role, i%13 != 0, now.AddDate(0, -6, 0),
		); err != nil {
			return fmt.Errorf("insert user %d: %w", i, err)
		}
	}

	for i, p := range demoProducers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO producers (id, user_id, business_name, location, approved) VALUES (?, ?, ?, ?, ?)`,
			i+1, (i+1)*8, p.name, p.location, p.approved,
		); err != nil {
			return fmt.Errorf("insert producer %q: %w", p.name, err)
		}
	}

	for i, p := range demoProducts {
		var category any
		if p.category != "" {
			category = p.category
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product (id, producer_id, name, description, price, quantity, category) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i+1, p.producer+1, p.name, "Demo product: "+p.name, p.price, p.quantity, category,
		); err != nil {
			return fmt.Errorf("insert product %q: %w", p.name, err)
		}
	}

	// Spend tiers shape who buys what: budget, regular, premium.
	orderID, itemID, cartID := 1, 1, 1
	for u := 1; u <= demoUsers; u++ {
		tier := u % 3
		orders := rng.Intn(demoOrdersPerUser + 1)
		for o := 0; o < orders; o++ {
			productIdx := pickDemoProduct(rng, tier)
			p := demoProducts[productIdx]
			qty := 1 + rng.Intn(3)
			placed := now.Add(-time.Duration(rng.Intn(120*24)) * time.Hour)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO orders (id, user_id, total_amount, created_at) VALUES (?, ?, ?, ?)`,
				orderID, u, p.price*float64(qty), placed,
			); err != nil {
				return fmt.Errorf("insert order %d: %w", orderID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`,
				itemID, orderID, productIdx+1, qty, p.price,
			); err != nil {
				return fmt.Errorf("insert order item %d: %w", itemID, err)
			}
			orderID++
			itemID++
		}

		if rng.Float64() < 0.5 {
			productIdx := pickDemoProduct(rng, tier)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
				cartID, u, productIdx+1, 1,
			); err != nil {
				return fmt.Errorf("insert cart item %d: %w", cartID, err)
			}
			cartID++
		}

		views := rng.Intn(6)
		for v := 0; v < views; v++ {
			action := recommend.InteractionTypes[rng.Intn(len(recommend.InteractionTypes))]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_interactions
					(event_id, user_id, product_id, action_type, interaction_score, session_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), u, pickDemoProduct(rng, tier)+1, string(action), action.DefaultScore(),
				fmt.Sprintf("demo-%d", u), now.Add(-time.Duration(rng.Intn(72))*time.Hour),
			); err != nil {
				return fmt.Errorf("insert interaction: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	logging.Info().
		Int("users", demoUsers).
		Int("products", len(demoProducts)).
		Int("orders", orderID-1).
		Msg("Demo data seeded")
	return nil
}

// pickDemoProduct draws a product index biased toward the tier's price range.
func pickDemoProduct(rng *rand.Rand, tier int) int {
	for attempt := 0; attempt < 8; attempt++ {
		idx := rng.Intn(len(demoProducts))
		price := demoProducts[idx].price
		switch {
		case tier == 0 && price < 60,
			tier == 1 && price >= 15 && price < 400,
			tier == 2 && price >= 80:
			return idx
		}
	}
	return rng.Intn(len(demoProducts))
}
