// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

func TestFetchUserAggregates(t *testing.T) {
	db := setupMarketplace(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int64
		want   *recommend.UserAggregates
	}{
		{
			name:   "customer with orders and cart",
			userID: 1,
			want: &recommend.UserAggregates{
				UserID: 1, Role: "CUSTOMER", OrderCount: 2, AvgOrderAmount: 200,
				CartItemCount: 1, DaysSinceLastOrder: 3,
			},
		},
		{
			name:   "producer without orders defaults recency",
			userID: 2,
			want: &recommend.UserAggregates{
				UserID: 2, Role: recommend.RoleProducer, CartItemCount: 1, DaysSinceLastOrder: 365,
			},
		},
		{
			name:   "unknown user",
			userID: 99,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FetchUserAggregates(ctx, tt.userID)
			if err != nil {
				t.Fatalf("FetchUserAggregates() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FetchUserAggregates() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetchProductRow(t *testing.T) {
	db := setupMarketplace(t)
	ctx := context.Background()

	row, err := db.FetchProductRow(ctx, 11)
	if err != nil {
		t.Fatalf("FetchProductRow() error = %v", err)
	}
	if row == nil || row.Price != 600 || row.Quantity != 2 {
		t.Errorf("FetchProductRow(11) = %+v", row)
	}

	row, err = db.FetchProductRow(ctx, 404)
	if err != nil || row != nil {
		t.Errorf("FetchProductRow(404) = %+v, %v; want nil, nil", row, err)
	}
}

func TestFetchCandidateProducts(t *testing.T) {
	db := setupMarketplace(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int64
		want   []int64
	}{
		{"excludes purchased, out of stock and unapproved", 1, []int64{11}},
		{"user without orders sees the approved catalog", 2, []int64{10, 11}},
		{"unknown user sees the approved catalog", 99, []int64{10, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FetchCandidateProducts(ctx, tt.userID)
			if err != nil {
				t.Fatalf("FetchCandidateProducts() error = %v", err)
			}
			var ids []int64
			for _, c := range got {
				ids = append(ids, c.ProductID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("candidate ids = %v, want %v", ids, tt.want)
			}
		})
	}

	t.Run("limit caps rows in catalog order", func(t *testing.T) {
		db.SetCandidateLimit(1)
		defer db.SetCandidateLimit(0)

		got, err := db.FetchCandidateProducts(ctx, 2)
		if err != nil || len(got) != 1 || got[0].ProductID != 10 {
			t.Errorf("FetchCandidateProducts() = %+v, %v; want only product 10", got, err)
		}
	})

	got, _ := db.FetchCandidateProducts(ctx, 1)
	want := recommend.CandidateProduct{
		ProductID: 11, Name: "Poncho", Description: "", Price: 600,
		ProducerName: "Huerta", Category: recommend.DefaultCategory, Quantity: 2,
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("candidate = %+v, want %+v", got, want)
	}
}

func TestFetchTrainingSnapshot(t *testing.T) {
	db := setupMarketplace(t)
	ctx := context.Background()

	err := db.RecordInteraction(ctx, &recommend.Interaction{
		EventID: "evt-1", UserID: 1, ProductID: 11, ActionType: recommend.InteractionAddToCart,
		Score: 0.5, CreatedAt: fixedNow,
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	rows, err := db.FetchTrainingSnapshot(ctx, 2000)
	if err != nil {
		t.Fatalf("FetchTrainingSnapshot() error = %v", err)
	}

	type key struct{ user, product int64 }
	want := map[key]float64{
		{1, 10}: 10,  // two orders containing the product
		{1, 11}: 6.5, // in cart across two order rows, plus a tracked add-to-cart
		{1, 13}: 6,   // one order with it, one without
		{2, 10}: 3,   // in cart, no orders
		{2, 11}: 1,
		{2, 13}: 1,
	}
	if len(rows) != len(want) {
		t.Fatalf("len(rows) = %d, want %d: %+v", len(rows), len(want), rows)
	}
	for _, r := range rows {
		score, ok := want[key{r.UserID, r.ProductID}]
		if !ok {
			t.Errorf("unexpected row user=%d product=%d", r.UserID, r.ProductID)
			continue
		}
		if r.InteractionScore != score {
			t.Errorf("score(user=%d, product=%d) = %v, want %v", r.UserID, r.ProductID, r.InteractionScore, score)
		}
	}

	first := rows[0]
	if first.UserID != 1 || first.ProductID != 10 || first.OrderCount != 2 || first.AvgOrderAmount != 200 || first.Price != 50 {
		t.Errorf("first row = %+v", first)
	}
	if rows[3].Role != recommend.RoleProducer {
		t.Errorf("rows[3].Role = %q, want PRODUCER", rows[3].Role)
	}

	capped, err := db.FetchTrainingSnapshot(ctx, 4)
	if err != nil || len(capped) != 4 {
		t.Errorf("FetchTrainingSnapshot(limit 4) = %d rows, %v", len(capped), err)
	}
}

func TestRecordPopularityCounts(t *testing.T) {
	db := setupMarketplace(t)

	got, err := db.RecordPopularityCounts(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecordPopularityCounts() error = %v", err)
	}
	want := []recommend.PopularProduct{
		{ProductID: 10, Name: "Quinoa", Description: "Organic quinoa", Price: 50, ProducerName: "Huerta", Category: "Grains", PopularityCount: 2},
		{ProductID: 11, Name: "Poncho", Description: "", Price: 600, ProducerName: "Huerta", Category: "General", PopularityCount: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecordPopularityCounts() = %+v, want %+v", got, want)
	}

	one, _ := db.RecordPopularityCounts(context.Background(), 1)
	if len(one) != 1 || one[0].ProductID != 10 {
		t.Errorf("limit 1 = %+v", one)
	}
}

func TestReads_WrapDataUnavailable(t *testing.T) {
	db := setupTestDB(t)
	mustExec(t, db,
		`INSERT INTO users (id, role) VALUES (1, 'CUSTOMER')`,
		`DROP TABLE orders`,
	)
	ctx := context.Background()

	if _, err := db.FetchUserAggregates(ctx, 1); !errors.Is(err, recommend.ErrDataUnavailable) {
		t.Errorf("FetchUserAggregates() error = %v, want ErrDataUnavailable", err)
	}
	if _, err := db.FetchCandidateProducts(ctx, 1); !errors.Is(err, recommend.ErrDataUnavailable) {
		t.Errorf("FetchCandidateProducts() error = %v, want ErrDataUnavailable", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := db.RecordPopularityCounts(canceled, 5); !errors.Is(err, recommend.ErrDataUnavailable) {
		t.Errorf("RecordPopularityCounts(canceled) error = %v, want ErrDataUnavailable", err)
	}
}

func TestFetchUserAggregates_FutureOrderClampsRecency(t *testing.T) {
	db := setupMarketplace(t)
	db.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	agg, err := db.FetchUserAggregates(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchUserAggregates() error = %v", err)
	}
	if agg.DaysSinceLastOrder != 0 {
		t.Errorf("DaysSinceLastOrder = %v, want 0 for an order after the reference time", agg.DaysSinceLastOrder)
	}
}
