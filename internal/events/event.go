// Package events carries domain events from handlers to the notification
// pipeline, over RabbitMQ when configured and in-process otherwise.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types, also used as routing keys.
const (
	ClaimSubmitted      = "claim.submitted"
	ClaimStatusUpdated  = "claim.status.updated"
	PolicyCreated       = "policy.created"
	PolicyUpdated       = "policy.updated"
	AssessmentCompleted = "assessment.completed"
	ReportCompleted     = "report.completed"
)

// Event is addressed to a single user.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RecipientID string    `json:"recipientId"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Reference   string    `json:"reference,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, recipientID, title, message, reference string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Reference:   reference,
		Timestamp:   time.Now().UTC(),
	}
}

// Publisher hands an event to the pipeline.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, e Event) error
