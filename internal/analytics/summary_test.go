package analytics

import (
	"context"
	"testing"
	"time"

	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := Build(at, 3,
		[]models.Field{{Area: 2.5}, {Area: 1.5}},
		[]models.Policy{
			{Status: models.PolicyActive, Crop: "maize", Premium: 100, Coverage: 1000},
			{Status: models.PolicyActive, Crop: "maize", Premium: 50, Coverage: 500},
			{Status: models.PolicyPending, Crop: "beans", Premium: 10, Coverage: 200},
		},
		[]models.Claim{
			{Status: models.ClaimApproved, DamageType: "drought", Amount: 300, ApprovedAmount: 250},
			{Status: models.ClaimPending, DamageType: "flood", Amount: 100},
		},
		[]models.Assessment{{RiskLevel: "high"}, {RiskLevel: "low"}, {RiskLevel: "high"}, {}},
	)

	assert.Equal(t, at, s.GeneratedAt)
	assert.EqualValues(t, 3, s.Farmers)
	assert.EqualValues(t, 2, s.Fields)
	assert.Equal(t, 4.0, s.TotalArea)
	assert.Equal(t, map[string]int64{"active": 2, "pending": 1}, s.PoliciesByStatus)
	assert.Equal(t, 160.0, s.TotalPremium)
	assert.Equal(t, 1700.0, s.TotalCoverage)
	assert.Equal(t, map[string]float64{"maize": 1500, "beans": 200}, s.CoverageByCrop)
	assert.Equal(t, map[string]int64{"approved": 1, "pending": 1}, s.ClaimsByStatus)
	assert.Equal(t, map[string]int64{"drought": 1, "flood": 1}, s.ClaimsByDamage)
	assert.Equal(t, 400.0, s.TotalClaimed)
	assert.Equal(t, 250.0, s.TotalApproved)
	assert.EqualValues(t, 4, s.Assessments)
	assert.Equal(t, map[string]int64{"high": 2, "low": 1}, s.RiskDistribution)
}

func TestSummarize_EmptyStore(t *testing.T) {
	s, err := Summarize(context.Background(), database.NewMemoryStore())
	require.NoError(t, err)
	assert.Zero(t, s.Claims)
	assert.NotNil(t, s.ClaimsByStatus)
}

func TestSummarize_CountsOnlyFarmers(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	require.NoError(t, store.Users.Insert(ctx, &models.User{Email: "f@x.rw", Role: models.RoleFarmer}))
	require.NoError(t, store.Users.Insert(ctx, &models.User{Email: "i@x.rw", Role: models.RoleInsurer}))
	require.NoError(t, store.Claims.Insert(ctx, &models.Claim{Status: models.ClaimPending, Amount: 5}))

	s, err := Summarize(ctx, store)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Farmers)
	assert.EqualValues(t, 1, s.Claims)
	assert.Equal(t, 5.0, s.TotalClaimed)
}
