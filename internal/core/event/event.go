// Package event defines domain events published through the transactional outbox.
package event

import (
	"context"

	"stockgate/internal/core/id"
)

// Event is a fact about an aggregate, delivered at least once.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher records events. Implementations write on the caller's
// transaction so an event exists only if the change that raised it commits.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, ...Event) error { return nil }
