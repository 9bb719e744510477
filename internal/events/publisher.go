// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/comercio-recommender/internal/metrics"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher hands tracked interactions to the event bus. Publish returns as
// soon as the bus has accepted the message; persistence happens in the
// router handler.
type Publisher struct {
	publisher message.Publisher
	topic     string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a publisher writing to topic.
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	return &Publisher{publisher: pub, topic: topic}
}

// PublishInteraction implements recommend.InteractionPublisher.
func (p *Publisher) PublishInteraction(ctx context.Context, in *recommend.Interaction) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := NewInteractionMessage(ctx, in)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish interaction %s: %w", in.EventID, err)
	}
	return nil
}

// Close stops accepting interactions. The underlying bus is owned by the
// caller and is not closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// SyncPublisher persists interactions inline. It is used when the event bus
// is disabled; the caller still sees fire-and-forget semantics because the
// engine only logs publish failures.
type SyncPublisher struct {
	store recommend.InteractionStore
}

// NewSyncPublisher creates a publisher that writes straight to store.
func NewSyncPublisher(store recommend.InteractionStore) *SyncPublisher {
	return &SyncPublisher{store: store}
}

// PublishInteraction implements recommend.InteractionPublisher.
func (p *SyncPublisher) PublishInteraction(ctx context.Context, in *recommend.Interaction) error {
	err := p.store.RecordInteraction(ctx, in)
	metrics.RecordInteractionEvent("persist", err)
	return err
}

var (
	_ recommend.InteractionPublisher = (*Publisher)(nil)
	_ recommend.InteractionPublisher = (*SyncPublisher)(nil)
)
