// Package notification stores per-user notifications and pushes them to open
// websocket connections.
package notification

import (
	"context"
	"time"

	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Pusher sends a live message to a user's open connections.
type Pusher interface {
	SendJSON(userID string, v interface{}) error
}

// Message is what a websocket client receives.
type Message struct {
	Event        string              `json:"event"`
	Notification models.Notification `json:"notification"`
}

type Service struct {
	store  database.Collection[models.Notification]
	pusher Pusher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store database.Collection[models.Notification], pusher Pusher, log *zap.Logger) *Service {
	return &Service{store: store, pusher: pusher, log: log, now: time.Now}
}

// Deliver stores e as a notification for its recipient and pushes it live.
// An event that was already stored is skipped, so redeliveries are harmless.
func (s *Service) Deliver(ctx context.Context, e events.Event) error {
	if e.RecipientID == "" {
		return nil
	}
	if e.ID != "" {
		seen, err := s.store.Count(ctx, bson.M{"eventId": e.ID})
		if err != nil {
			return err
		}
		if seen > 0 {
			s.log.Debug("event already delivered", zap.String("eventId", e.ID))
			return nil
		}
	}

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    e.RecipientID,
		Type:      e.Type,
		Title:     e.Title,
		Message:   e.Message,
		Reference: e.Reference,
		EventID:   e.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, &n); err != nil {
		return err
	}

	if s.pusher != nil {
		if err := s.pusher.SendJSON(n.UserID, Message{Event: "notification", Notification: n}); err != nil {
			s.log.Warn("live push failed", zap.String("userId", n.UserID), zap.Error(err))
		}
	}
	return nil
}

// List returns the newest notifications of userID and how many are unread.
func (s *Service) List(ctx context.Context, userID string, limit int64) ([]models.Notification, int64, error) {
	items, err := s.store.Find(ctx, bson.M{"userId": userID}, database.Newest(limit))
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.store.Count(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

// MarkRead flags one of userID's notifications as read. It returns
// database.ErrNotFound when the notification does not belong to userID.
func (s *Service) MarkRead(ctx context.Context, userID string, id primitive.ObjectID) error {
	matched, err := s.store.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{"read": true})
	if err != nil {
		return err
	}
	if matched == 0 {
		return database.ErrNotFound
	}
	return nil
}
