package auth

import (
	"context"
	"fmt"
	"time"

	"starhawk-api-server/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// SessionStore is the subset of the sessions collection the service needs.
type SessionStore interface {
	Insert(ctx context.Context, doc *models.Session) error
	Count(ctx context.Context, filter bson.M) (int64, error)
	UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error)
	UpdateMany(ctx context.Context, filter bson.M, set bson.M) (int64, error)
}

// SessionService keeps the allow-list of issued tokens. A token whose session is
// revoked or missing is rejected even when its signature and expiry are valid.
type SessionService struct {
	store SessionStore
	now   func() time.Time
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store, now: time.Now}
}

func (s *SessionService) Create(ctx context.Context, userID, role string, ttl time.Duration) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *SessionService) IsActive(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.store.Count(ctx, bson.M{"_id": sessionID, "revokedAt": bson.M{"$exists": false}})
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	_, err := s.store.UpdateOne(ctx,
		bson.M{"_id": sessionID, "revokedAt": bson.M{"$exists": false}},
		bson.M{"revokedAt": s.now()})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser ends every live session of userID and reports how many were ended.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.UpdateMany(ctx,
		bson.M{"userId": userID, "revokedAt": bson.M{"$exists": false}},
		bson.M{"revokedAt": s.now()})
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}

// Issuer pairs a new session with a signed token.
type Issuer struct {
	Tokens   *TokenManager
	Sessions *SessionService
}

// Issue creates a session for the user and returns its token.
func (i Issuer) Issue(ctx context.Context, userID, email, role string) (string, time.Time, error) {
	session, err := i.Sessions.Create(ctx, userID, role, i.Tokens.TTL())
	if err != nil {
		return "", time.Time{}, err
	}
	return i.Tokens.Generate(userID, email, role, session.ID)
}
