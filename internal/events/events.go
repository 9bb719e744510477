// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// Metadata keys set on every interaction message.
const (
	MetadataUserID        = "user_id"
	MetadataActionType    = "action_type"
	MetadataCorrelationID = "correlation_id"
)

// ErrInvalidPayload marks messages that can never be persisted.
var ErrInvalidPayload = errors.New("invalid interaction payload")

// NewInteractionMessage encodes in as a watermill message. The event ID is
// reused as the message UUID so redeliveries carry the same identity.
func NewInteractionMessage(ctx context.Context, in *recommend.Interaction) (*message.Message, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil interaction", ErrInvalidPayload)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal interaction %s: %w", in.EventID, err)
	}

	msg := message.NewMessage(in.EventID, payload)
	msg.Metadata.Set(MetadataUserID, strconv.FormatInt(in.UserID, 10))
	msg.Metadata.Set(MetadataActionType, string(in.ActionType))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	} else if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}
	return msg, nil
}

// DecodeInteraction parses and validates a message payload.
func DecodeInteraction(payload []byte) (*recommend.Interaction, error) {
	var in recommend.Interaction
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrInvalidPayload)
	}
	if !in.ActionType.Valid() {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidPayload, in.ActionType)
	}
	if in.UserID <= 0 || in.ProductID <= 0 {
		return nil, fmt.Errorf("%w: user %d product %d", ErrInvalidPayload, in.UserID, in.ProductID)
	}
	return &in, nil
}
