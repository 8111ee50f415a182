// server/internal/database/database.go
package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"starhawk-api-server/config"
	"starhawk-api-server/internal/models"

	"github.com/avast/retry-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MemoryURI selects the in-memory store instead of a MongoDB deployment.
const MemoryURI = "memory://"

// IsMemoryURI reports whether uri selects the in-memory store.
func IsMemoryURI(uri string) bool {
	return strings.HasPrefix(uri, MemoryURI)
}

// Collection names
const (
	UsersCollection         = "users"
	FarmersCollection       = "farmers"
	InsurersCollection      = "insurers"
	AssessorsCollection     = "assessors"
	PoliciesCollection      = "policies"
	ClaimsCollection        = "claims"
	AssessmentsCollection   = "assessments"
	FieldsCollection        = "fields"
	ReportsCollection       = "reports"
	NotificationsCollection = "notifications"
	SessionsCollection      = "sessions"
)

// Store holds one connection and a typed accessor per collection.
type Store struct {
	Users         Collection[models.User]
	Farmers       Collection[models.FarmerProfile]
	Insurers      Collection[models.InsurerProfile]
	Assessors     Collection[models.AssessorProfile]
	Policies      Collection[models.Policy]
	Claims        Collection[models.Claim]
	Assessments   Collection[models.Assessment]
	Fields        Collection[models.Field]
	Reports       Collection[models.Report]
	Notifications Collection[models.Notification]
	Sessions      Collection[models.Session]

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens and pings a MongoDB connection. A "memory://" URI returns an
// in-memory store. Failed attempts are retried with backoff up to cfg.ConnectAttempts.
func Connect(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*Store, error) {
	if IsMemoryURI(cfg.URI) {
		log.Warn("using in-memory store, data is lost on restart")
		return NewMemoryStore(), nil
	}

	timeout := config.Duration(cfg.ConnectTimeout, 10*time.Second)
	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	var client *mongo.Client
	err := retry.Do(
		func() error {
			c, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(timeout))
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := c.Ping(pingCtx, nil); err != nil {
				_ = c.Disconnect(context.Background())
				return err
			}
			client = c
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("mongodb connection failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		log.Error("mongodb connection failed", zap.Error(err))
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	log.Info("connected to mongodb", zap.String("database", cfg.DBName))
	return newMongoStore(client, client.Database(cfg.DBName)), nil
}

func newMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:         newMongoCollection[models.User](db, UsersCollection),
		Farmers:       newMongoCollection[models.FarmerProfile](db, FarmersCollection),
		Insurers:      newMongoCollection[models.InsurerProfile](db, InsurersCollection),
		Assessors:     newMongoCollection[models.AssessorProfile](db, AssessorsCollection),
		Policies:      newMongoCollection[models.Policy](db, PoliciesCollection),
		Claims:        newMongoCollection[models.Claim](db, ClaimsCollection),
		Assessments:   newMongoCollection[models.Assessment](db, AssessmentsCollection),
		Fields:        newMongoCollection[models.Field](db, FieldsCollection),
		Reports:       newMongoCollection[models.Report](db, ReportsCollection),
		Notifications: newMongoCollection[models.Notification](db, NotificationsCollection),
		Sessions:      newMongoCollection[models.Session](db, SessionsCollection),
		client:        client,
		db:            db,
	}
}

// NewMemoryStore returns a store backed by process memory. users.email is unique.
func NewMemoryStore() *Store {
	return &Store{
		Users:         newMemoryCollection[models.User](UsersCollection, "email"),
		Farmers:       newMemoryCollection[models.FarmerProfile](FarmersCollection),
		Insurers:      newMemoryCollection[models.InsurerProfile](InsurersCollection),
		Assessors:     newMemoryCollection[models.AssessorProfile](AssessorsCollection),
		Policies:      newMemoryCollection[models.Policy](PoliciesCollection),
		Claims:        newMemoryCollection[models.Claim](ClaimsCollection),
		Assessments:   newMemoryCollection[models.Assessment](AssessmentsCollection),
		Fields:        newMemoryCollection[models.Field](FieldsCollection),
		Reports:       newMemoryCollection[models.Report](ReportsCollection),
		Notifications: newMemoryCollection[models.Notification](NotificationsCollection),
		Sessions:      newMemoryCollection[models.Session](SessionsCollection),
	}
}

// Database returns the driver handle, or ErrNotConnected for memory or closed stores.
func (s *Store) Database() (*mongo.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrNotConnected
	}
	return s.db, nil
}

// Close disconnects the driver. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.db = nil, nil
	return err
}

// EnsureIndexes creates the unique email index and the lookup indexes. It is a
// no-op for the in-memory store.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	db, err := s.Database()
	if err != nil {
		return nil
	}

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		SessionsCollection:      {{Keys: bson.D{{Key: "userId", Value: 1}}}},
		ClaimsCollection:        {{Keys: bson.D{{Key: "farmerId", Value: 1}}}},
		NotificationsCollection: {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
