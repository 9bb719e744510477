// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

// Scales applied to training-snapshot attributes before clamping to [0, 1].
const (
	trainOrderScale  = 10.0
	trainAmountScale = 1000.0
	trainPriceScale  = 1000.0
	trainQtyScale    = 100.0
	trainScoreScale  = 10.0
)

// TrainingDataset is an immutable snapshot of training rows grouped by user
// and by product. Ids are kept in first-seen order so iteration is stable.
type TrainingDataset struct {
	rows       []TrainingRow
	userIDs    []int64
	productIDs []int64
	byUser     map[int64][]int
	byProduct  map[int64][]int
}

// NewTrainingDataset copies the valid rows and groups them. It returns the
// number of rows rejected by validation.
func NewTrainingDataset(rows []TrainingRow) (*TrainingDataset, int) {
	d := &TrainingDataset{
		rows:      make([]TrainingRow, 0, len(rows)),
		byUser:    make(map[int64][]int),
		byProduct: make(map[int64][]int),
	}
	dropped := 0
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			dropped++
			continue
		}
		idx := len(d.rows)
		d.rows = append(d.rows, rows[i])

		uid, pid := rows[i].UserID, rows[i].ProductID
		if _, ok := d.byUser[uid]; !ok {
			d.userIDs = append(d.userIDs, uid)
		}
		d.byUser[uid] = append(d.byUser[uid], idx)
		if _, ok := d.byProduct[pid]; !ok {
			d.productIDs = append(d.productIDs, pid)
		}
		d.byProduct[pid] = append(d.byProduct[pid], idx)
	}
	return d, dropped
}

// Len returns the number of rows.
func (d *TrainingDataset) Len() int { return len(d.rows) }

// Empty reports whether the dataset has no rows.
func (d *TrainingDataset) Empty() bool { return len(d.rows) == 0 }

// UserIDs returns the distinct users in first-seen order.
func (d *TrainingDataset) UserIDs() []int64 { return append([]int64(nil), d.userIDs...) }

// ProductIDs returns the distinct products in first-seen order.
func (d *TrainingDataset) ProductIDs() []int64 { return append([]int64(nil), d.productIDs...) }

// UserFeatures returns [orders, average amount, producer flag, mean score]
// scaled into [0, 1], taken from the user's first row.
func (d *TrainingDataset) UserFeatures(userID int64) (FeatureVector, bool) {
	idx, ok := d.byUser[userID]
	if !ok || len(idx) == 0 {
		return nil, false
	}
	first := d.rows[idx[0]]
	role := 0.0
	if first.Role == RoleProducer {
		role = 1
	}
	return FeatureVector{
		Clamp01(float64(first.OrderCount) / trainOrderScale),
		Clamp01(first.AvgOrderAmount / trainAmountScale),
		role,
		Clamp01(d.meanScore(idx) / trainScoreScale),
	}, true
}

// ProductFeatures returns [price, quantity, mean score] scaled into [0, 1].
func (d *TrainingDataset) ProductFeatures(productID int64) (FeatureVector, bool) {
	idx, ok := d.byProduct[productID]
	if !ok || len(idx) == 0 {
		return nil, false
	}
	first := d.rows[idx[0]]
	return FeatureVector{
		Clamp01(first.Price / trainPriceScale),
		Clamp01(float64(first.Quantity) / trainQtyScale),
		Clamp01(d.meanScore(idx) / trainScoreScale),
	}, true
}

// UserMatrix returns one feature vector per user, aligned with UserIDs.
func (d *TrainingDataset) UserMatrix() ([][]float64, []int64) {
	vectors := make([][]float64, 0, len(d.userIDs))
	ids := make([]int64, 0, len(d.userIDs))
	for _, uid := range d.userIDs {
		fv, ok := d.UserFeatures(uid)
		if !ok {
			continue
		}
		vectors = append(vectors, fv)
		ids = append(ids, uid)
	}
	return vectors, ids
}

// Samples builds scorer inputs and targets for every row. Inputs combine the
// given user and product embeddings; the target is min(1, score/10).
func (d *TrainingDataset) Samples(users, products map[int64]Embedding) (inputs, targets [][]float64, err error) {
	inputs = make([][]float64, 0, len(d.rows))
	targets = make([][]float64, 0, len(d.rows))
	for i := range d.rows {
		r := &d.rows[i]
		in, err := CombineEmbeddings(users[r.UserID], products[r.ProductID])
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, in)
		targets = append(targets, []float64{min(1.0, r.InteractionScore/trainScoreScale)})
	}
	return inputs, targets, nil
}

func (d *TrainingDataset) meanScore(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += d.rows[i].InteractionScore
	}
	return sum / float64(len(idx))
}
