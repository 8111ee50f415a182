package database

import (
	"context"
	"testing"

	"starhawk-api-server/config"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

func TestIsMemoryURI(t *testing.T) {
	assert.True(t, IsMemoryURI(MemoryURI))
	assert.True(t, IsMemoryURI("memory://starhawk"))
	assert.False(t, IsMemoryURI("mongodb://localhost:27017"))
	assert.False(t, IsMemoryURI(""))
}

func TestConnect_MemoryURI(t *testing.T) {
	store, err := Connect(context.Background(), config.MongoConfig{URI: MemoryURI}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, store.Users)

	_, err = store.Database()
	assert.ErrorIs(t, err, ErrNotConnected, "memory store has no driver handle")
	assert.NoError(t, store.EnsureIndexes(context.Background()))
	assert.NoError(t, store.Close(context.Background()))
}

func TestStore_CollectionNames(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, "users", store.Users.Name())
	assert.Equal(t, "farmers", store.Farmers.Name())
	assert.Equal(t, "insurers", store.Insurers.Name())
	assert.Equal(t, "assessors", store.Assessors.Name())
	assert.Equal(t, "policies", store.Policies.Name())
	assert.Equal(t, "claims", store.Claims.Name())
	assert.Equal(t, "assessments", store.Assessments.Name())
	assert.Equal(t, "fields", store.Fields.Name())
	assert.Equal(t, "reports", store.Reports.Name())
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, EnsureAdmin(ctx, store, "root@starhawk.rw", "s3cret", zap.NewNop()))
	require.NoError(t, EnsureAdmin(ctx, store, "root@starhawk.rw", "s3cret", zap.NewNop()), "second run is a no-op")

	admins, err := store.Users.Find(ctx, bson.M{"role": models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].IsActive)
	assert.True(t, auth.CheckPasswordHash("s3cret", admins[0].Password))
}

func TestEnsureAdmin_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, EnsureAdmin(ctx, store, "  Admin@Starhawk.RW ", "s3cret", zap.NewNop()))
	require.NoError(t, EnsureAdmin(ctx, store, "admin@starhawk.rw", "s3cret", zap.NewNop()))

	admins, err := store.Users.Find(ctx, bson.M{"role": models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@starhawk.rw", admins[0].Email)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users.Insert(ctx, &models.User{Email: "stale@example.com"}))

	result, err := Seed(ctx, store, zap.NewNop())
	require.NoError(t, err)

	for _, role := range models.Roles {
		user, ok := result.Users[role]
		require.True(t, ok, role)
		assert.True(t, auth.CheckPasswordHash(SeedPassword, user.Password))
	}

	n, _ := store.Users.Count(ctx, bson.M{"email": "stale@example.com"})
	assert.Zero(t, n, "seed clears existing data")

	farmerID := result.Users[models.RoleFarmer].ID.Hex()
	fields, err := store.Fields.Find(ctx, bson.M{"farmerId": farmerID})
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	claims, err := store.Claims.Find(ctx, bson.M{"farmerId": farmerID})
	require.NoError(t, err)
	assert.Len(t, claims, 2)
	for _, c := range claims {
		assert.NotNil(t, c.Evidence)
	}

	profiles, _ := store.Farmers.Count(ctx, bson.M{"userId": farmerID})
	assert.EqualValues(t, 1, profiles)

	// Seeding twice leaves exactly one data set.
	_, err = Seed(ctx, store, zap.NewNop())
	require.NoError(t, err)
	users, _ := store.Users.Count(ctx, nil)
	assert.EqualValues(t, len(models.Roles), users)
}
