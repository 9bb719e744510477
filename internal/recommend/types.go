// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// FeatureVector is an ordered list of normalized attributes for a user or product.
// Users carry UserFeatureSize components, products ProductFeatureSize.
type FeatureVector []float64

// Embedding is a FeatureVector after nonlinear projection.
type Embedding []float64

// Segment is a cluster label assigned to a user.
type Segment int

// Vector dimensions shared by the feature store, the embedding generator and
// the scorer. The scorer input is a user embedding, a product embedding and
// two interaction features.
const (
	UserFeatureSize        = 8
	ProductFeatureSize     = 6
	UserEmbeddingSize      = 8
	ProductEmbeddingSize   = 6
	InteractionFeatureSize = 2
	ScorerInputSize        = UserEmbeddingSize + ProductEmbeddingSize + InteractionFeatureSize
)

// RoleProducer marks users who sell through the platform.
const RoleProducer = "PRODUCER"

// ModelState describes where the model is in its lifecycle.
type ModelState int

const (
	// StateUntrained means no snapshot has ever been published.
	StateUntrained ModelState = iota
	// StateTraining means a training cycle is running.
	StateTraining
	// StateTrained means the published snapshot is within the retrain interval.
	StateTrained
	// StateStale means the published snapshot is older than the retrain interval.
	// It keeps serving predictions until a newer one replaces it.
	StateStale
)

// String returns the lowercase state name.
func (s ModelState) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON responses.
func (s ModelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *ModelState) UnmarshalText(text []byte) error {
	for _, st := range []ModelState{StateUntrained, StateTraining, StateTrained, StateStale} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown model state %q", text)
}

// InteractionType classifies a tracked user action on a product.
type InteractionType string

const (
	// InteractionView is a product page view.
	InteractionView InteractionType = "VIEW"
	// InteractionAddToCart is a product added to the shopping cart.
	InteractionAddToCart InteractionType = "ADD_TO_CART"
	// InteractionPurchase is a completed purchase.
	InteractionPurchase InteractionType = "PURCHASE"
	// InteractionFavorite is a product marked as favorite.
	InteractionFavorite InteractionType = "FAVORITE"
)

// InteractionTypes lists every known interaction type in display order.
var InteractionTypes = []InteractionType{
	InteractionView,
	InteractionAddToCart,
	InteractionPurchase,
	InteractionFavorite,
}

// DefaultScore returns the implicit-feedback weight recorded for the action.
func (t InteractionType) DefaultScore() float64 {
	switch t {
	case InteractionView:
		return 0.1
	case InteractionAddToCart:
		return 0.5
	case InteractionPurchase:
		return 1.0
	case InteractionFavorite:
		return 0.3
	default:
		return 0
	}
}

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	return t.DefaultScore() > 0
}

// ParseInteractionType parses a case-insensitive interaction type name.
func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown interaction type %q", s)
	}
	return t, nil
}

// Interaction is a single tracked user action.
type Interaction struct {
	// EventID uniquely identifies the tracking event.
	EventID string `json:"event_id"`

	// UserID is the acting user.
	UserID int64 `json:"user_id"`

	// ProductID is the product acted upon.
	ProductID int64 `json:"product_id"`

	// ActionType is the kind of action.
	ActionType InteractionType `json:"action_type"`

	// Score is the implicit-feedback weight, normally ActionType.DefaultScore().
	Score float64 `json:"interaction_score"`

	// SessionID is the optional client session identifier.
	SessionID string `json:"session_id,omitempty"`

	// CreatedAt is when the action happened.
	CreatedAt time.Time `json:"created_at"`
}

// UserAggregates is the per-user order/cart summary used to build user features.
type UserAggregates struct {
	UserID             int64
	OrderCount         int
	AvgOrderAmount     float64
	CartItemCount      int
	DaysSinceLastOrder float64
	Role               string
}

// Validate rejects rows that cannot be normalized.
func (u *UserAggregates) Validate() error {
	switch {
	case u.OrderCount < 0:
		return fmt.Errorf("user %d: negative order count %d", u.UserID, u.OrderCount)
	case u.AvgOrderAmount < 0:
		return fmt.Errorf("user %d: negative average order amount %f", u.UserID, u.AvgOrderAmount)
	case u.CartItemCount < 0:
		return fmt.Errorf("user %d: negative cart item count %d", u.UserID, u.CartItemCount)
	case u.DaysSinceLastOrder < 0:
		return fmt.Errorf("user %d: negative days since last order %f", u.UserID, u.DaysSinceLastOrder)
	}
	return nil
}

// ProductRow is the catalog data needed to build product features.
type ProductRow struct {
	ProductID int64
	Price     float64
	Quantity  int
}

// Validate rejects rows that cannot be normalized.
func (p *ProductRow) Validate() error {
	if p.Price < 0 {
		return fmt.Errorf("product %d: negative price %f", p.ProductID, p.Price)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product %d: negative quantity %d", p.ProductID, p.Quantity)
	}
	return nil
}

// CandidateProduct is an in-stock product from an approved producer that the
// user has not purchased yet.
type CandidateProduct struct {
	ProductID    int64
	Name         string
	Description  string
	Price        float64
	ProducerName string
	Category     string
	Quantity     int
}

// Row returns the catalog attributes of the candidate.
func (c *CandidateProduct) Row() ProductRow {
	return ProductRow{ProductID: c.ProductID, Price: c.Price, Quantity: c.Quantity}
}

// TrainingRow is one joined (user, product) observation from the training snapshot.
type TrainingRow struct {
	UserID           int64
	Role             string
	ProductID        int64
	Price            float64
	Quantity         int
	OrderCount       int
	AvgOrderAmount   float64
	InteractionScore float64
}

// Validate rejects rows that would put NaN or negative values into the network.
func (r *TrainingRow) Validate() error {
	switch {
	case r.Price < 0 || r.Quantity < 0:
		return fmt.Errorf("row user=%d product=%d: negative catalog values", r.UserID, r.ProductID)
	case r.OrderCount < 0 || r.AvgOrderAmount < 0:
		return fmt.Errorf("row user=%d product=%d: negative order values", r.UserID, r.ProductID)
	case r.InteractionScore < 0:
		return fmt.Errorf("row user=%d product=%d: negative interaction score", r.UserID, r.ProductID)
	}
	return nil
}

// PopularProduct is a product with its historical transaction count.
type PopularProduct struct {
	ProductID       int64
	Name            string
	Description     string
	Price           float64
	ProducerName    string
	Category        string
	PopularityCount float64
}

// InteractionStats summarizes a user's tracked interactions and spending.
type InteractionStats struct {
	Total           int64
	Views           int64
	CartAdds        int64
	Purchases       int64
	Favorites       int64
	AverageSpending float64
	LastActivity    *time.Time

	// FavoriteCategory is the category of the products the user interacts
	// with most, empty when none of them has one.
	FavoriteCategory string
}

// Recommendation is a single ranked product returned to API callers.
type Recommendation struct {
	// ProductID is the recommended product.
	ProductID int64 `json:"productId"`

	// Name is the product name.
	Name string `json:"productName"`

	// Description is the product description.
	Description string `json:"description"`

	// Price is the unit price.
	Price float64 `json:"price"`

	// ProducerName is the business name of the selling producer.
	ProducerName string `json:"producerName"`

	// Category is the product category, "General" when uncategorized.
	Category string `json:"category"`

	// Score is non-negative. Model scores are boosted and may exceed 100.
	Score float64 `json:"recommendationScore"`

	// Reason names the path that produced the entry.
	Reason string `json:"reason"`
}

// UserProfile is the analysis returned for a single user.
type UserProfile struct {
	UserID                int64      `json:"userId"`
	TotalInteractions     int64      `json:"totalInteractions"`
	TotalViews            int64      `json:"totalViews"`
	TotalCartAdds         int64      `json:"totalCartAdds"`
	TotalPurchases        int64      `json:"totalPurchases"`
	TotalFavorites        int64      `json:"totalFavorites"`
	PurchaseFrequency     float64    `json:"purchaseFrequency"`
	AverageSpending       float64    `json:"averageSpending"`
	FavoriteCategory      string     `json:"favoriteCategory"`
	LastActivity          *time.Time `json:"lastActivity"`
	ModelTrained          bool       `json:"neuralNetworkTrained"`
	ModelState            ModelState `json:"modelState"`
	UserEmbeddingCached   bool       `json:"userEmbeddingGenerated"`
	UserSegment           Segment    `json:"userSegment"`
	SegmentFromClustering bool       `json:"segmentFromClustering"`
	LastModelUpdate       *time.Time `json:"lastModelUpdate"`
}

// TrainingStatus reports the coordinator's view of the model.
type TrainingStatus struct {
	State         ModelState `json:"state"`
	InFlight      bool       `json:"in_flight"`
	Version       int64      `json:"version"`
	SnapshotID    string     `json:"snapshot_id,omitempty"`
	LastTrainedAt time.Time  `json:"last_trained_at,omitempty"`
	LastLoss      float64    `json:"last_loss"`
	Samples       int        `json:"samples"`
	Clusters      int        `json:"clusters"`
	Cycles        int64      `json:"cycles"`
	Failures      int64      `json:"failures"`
	LastError     string     `json:"last_error,omitempty"`
}
