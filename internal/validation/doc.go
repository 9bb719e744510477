// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by all handlers; it caches struct
// metadata after the first call. Errors are reported with the field's JSON
// name and converted to the API's VALIDATION_ERROR body by ToAPIError.
//
// # Usage
//
//	type TrackRequest struct {
//	    UserID     int64  `json:"userId" validate:"gt=0"`
//	    ActionType string `json:"actionType" validate:"required,interaction_type"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Custom Tags
//
//   - interaction_type: VIEW, ADD_TO_CART, PURCHASE or FAVORITE, case-insensitive
package validation
