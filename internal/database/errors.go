// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"fmt"
	"io"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// unavailable wraps a failed read so callers can match recommend.ErrDataUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, recommend.ErrDataUnavailable, err)
}
