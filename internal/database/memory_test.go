package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"starhawk-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func insertClaims(t *testing.T, c Collection[models.Claim], claims ...models.Claim) {
	t.Helper()
	for i := range claims {
		require.NoError(t, c.Insert(context.Background(), &claims[i]))
	}
}

func TestMemoryCollection_FindFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	insertClaims(t, store.Claims,
		models.Claim{ClaimNumber: "A", FarmerID: "f1", Status: models.ClaimPending, Amount: 10, CreatedAt: base},
		models.Claim{ClaimNumber: "B", FarmerID: "f1", Status: models.ClaimApproved, Amount: 20, CreatedAt: base.Add(time.Hour)},
		models.Claim{ClaimNumber: "C", FarmerID: "f2", Status: models.ClaimRejected, Amount: 30, CreatedAt: base.Add(2 * time.Hour)},
	)

	t.Run("equality", func(t *testing.T) {
		got, err := store.Claims.Find(ctx, bson.M{"farmerId": "f1"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("numeric equality across int and float", func(t *testing.T) {
		got, err := store.Claims.Find(ctx, bson.M{"amount": 20})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "B", got[0].ClaimNumber)
	})

	t.Run("in", func(t *testing.T) {
		got, err := store.Claims.Find(ctx, bson.M{"status": bson.M{"$in": []string{models.ClaimApproved, models.ClaimRejected}}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("ne", func(t *testing.T) {
		n, err := store.Claims.Count(ctx, bson.M{"status": bson.M{"$ne": models.ClaimPending}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		got, err := store.Claims.Find(ctx, nil, Newest(2))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "C", got[0].ClaimNumber)
		assert.Equal(t, "B", got[1].ClaimNumber)
	})

	t.Run("no match is an empty slice", func(t *testing.T) {
		got, err := store.Claims.Find(ctx, bson.M{"farmerId": "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMemoryCollection_FindOneByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := primitive.NewObjectID()
	insertClaims(t, store.Claims, models.Claim{ID: id, ClaimNumber: "X"})

	got, err := store.Claims.FindOne(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, "X", got.ClaimNumber)

	_, err = store.Claims.FindOne(ctx, bson.M{"_id": primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCollection_InsertAssignsID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	insertClaims(t, store.Claims, models.Claim{ClaimNumber: "no-id"})

	got, err := store.Claims.FindOne(ctx, bson.M{"claimNumber": "no-id"})
	require.NoError(t, err)
	assert.False(t, got.ID.IsZero())
}

func TestMemoryCollection_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Users.Insert(ctx, &models.User{Email: "a@b.com"}))
	err := store.Users.Insert(ctx, &models.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	n, _ := store.Users.Count(ctx, nil)
	assert.EqualValues(t, 1, n)
}

func TestMemoryCollection_UpdateSetsOnlyGivenKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := primitive.NewObjectID()
	insertClaims(t, store.Claims, models.Claim{ID: id, Status: models.ClaimPending, Notes: "keep", Amount: 50})

	matched, err := store.Claims.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"status": models.ClaimApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)

	got, err := store.Claims.FindOne(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, got.Status)
	assert.Equal(t, "keep", got.Notes)
	assert.Equal(t, 50.0, got.Amount)

	matched, err = store.Claims.UpdateOne(ctx, bson.M{"_id": primitive.NewObjectID()}, bson.M{"status": models.ClaimPaid})
	require.NoError(t, err)
	assert.Zero(t, matched)
}

func TestMemoryCollection_UpdateManyAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	insertClaims(t, store.Claims,
		models.Claim{FarmerID: "f1", Status: models.ClaimPending},
		models.Claim{FarmerID: "f1", Status: models.ClaimPending},
		models.Claim{FarmerID: "f2", Status: models.ClaimPending},
	)

	n, err := store.Claims.UpdateMany(ctx, bson.M{"farmerId": "f1"}, bson.M{"status": models.ClaimUnderReview})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = store.Claims.DeleteMany(ctx, bson.M{"status": models.ClaimUnderReview})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := store.Claims.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "f2", left[0].FarmerID)
}

func TestMemoryCollection_ExistsOperator(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	require.NoError(t, store.Sessions.Insert(ctx, &models.Session{ID: "live", UserID: "u"}))
	require.NoError(t, store.Sessions.Insert(ctx, &models.Session{ID: "dead", UserID: "u", RevokedAt: &now}))

	n, err := store.Sessions.Count(ctx, bson.M{"userId": "u", "revokedAt": bson.M{"$exists": false}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryCollection_PushAppendsAtomically(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := primitive.NewObjectID()
	insertClaims(t, store.Claims, models.Claim{ID: id, Status: models.ClaimPending})

	const uploads = 50
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Claims.Push(ctx, bson.M{"_id": id}, "evidence", fmt.Sprintf("url-%d", i), bson.M{"notes": "touched"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Claims.FindOne(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	assert.Len(t, got.Evidence, uploads)
	assert.Equal(t, "touched", got.Notes)
	assert.Equal(t, models.ClaimPending, got.Status)

	matched, err := store.Claims.Push(ctx, bson.M{"_id": primitive.NewObjectID()}, "evidence", "x", nil)
	require.NoError(t, err)
	assert.Zero(t, matched)
}

func TestMemoryCollection_RangeOperators(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	insertClaims(t, store.Claims,
		models.Claim{ClaimNumber: "jan", Amount: 10, CreatedAt: jan},
		models.Claim{ClaimNumber: "feb", Amount: 20, CreatedAt: feb},
	)

	inFeb, err := store.Claims.Find(ctx, bson.M{"createdAt": bson.M{
		"$gte": time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		"$lt":  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	require.Len(t, inFeb, 1)
	assert.Equal(t, "feb", inFeb[0].ClaimNumber)

	n, err := store.Claims.Count(ctx, bson.M{"amount": bson.M{"$gt": 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.Claims.Count(ctx, bson.M{"amount": bson.M{"$lte": "20"}})
	require.NoError(t, err)
	assert.Zero(t, n, "mismatched kinds never compare")
}
