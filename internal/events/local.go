package events

import (
	"context"
	"errors"
)

// LocalPublisher delivers events synchronously to a handler in the same process.
// It is used when no broker is configured.
type LocalPublisher struct {
	handler Handler
}

func NewLocalPublisher(handler Handler) *LocalPublisher {
	return &LocalPublisher{handler: handler}
}

func (p *LocalPublisher) Publish(ctx context.Context, e Event) error {
	if p.handler == nil {
		return errors.New("no event handler")
	}
	if e.RecipientID == "" {
		return nil
	}
	return p.handler(ctx, e)
}
