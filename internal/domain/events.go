package domain

import (
	"context"
	"time"
)

// Event types emitted by the services
const (
	EventContentPublished  = "content.published"
	EventContentSubscribed = "content.subscribed"
	EventReviewCreated     = "review.created"
	EventUserRegistered    = "user.registered"
)

// Event is a domain event. Key groups events of one aggregate.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	ActorID    string         `json:"actor_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventPublisher delivers domain events to interested consumers
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Mailer sends plain text e-mails
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
