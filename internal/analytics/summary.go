// Package analytics aggregates platform-wide figures for dashboards and reports.
package analytics

import (
	"context"
	"time"

	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// Summarize loads every collection it needs concurrently and folds them into one summary.
func Summarize(ctx context.Context, store *database.Store) (*models.Summary, error) {
	var (
		farmers     int64
		fields      []models.Field
		policies    []models.Policy
		claims      []models.Claim
		assessments []models.Assessment
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		farmers, err = store.Users.Count(ctx, bson.M{"role": models.RoleFarmer})
		return err
	})
	g.Go(func() (err error) {
		fields, err = store.Fields.Find(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		policies, err = store.Policies.Find(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		claims, err = store.Claims.Find(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		assessments, err = store.Assessments.Find(ctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Build(time.Now().UTC(), farmers, fields, policies, claims, assessments), nil
}

// Build folds already loaded documents into a summary.
func Build(at time.Time, farmers int64, fields []models.Field, policies []models.Policy,
	claims []models.Claim, assessments []models.Assessment) *models.Summary {
	s := &models.Summary{
		GeneratedAt:      at,
		Farmers:          farmers,
		Fields:           int64(len(fields)),
		Policies:         int64(len(policies)),
		PoliciesByStatus: map[string]int64{},
		CoverageByCrop:   map[string]float64{},
		Claims:           int64(len(claims)),
		ClaimsByStatus:   map[string]int64{},
		ClaimsByDamage:   map[string]int64{},
		Assessments:      int64(len(assessments)),
		RiskDistribution: map[string]int64{},
	}

	for _, f := range fields {
		s.TotalArea += f.Area
	}
	for _, p := range policies {
		s.PoliciesByStatus[p.Status]++
		s.TotalPremium += p.Premium
		s.TotalCoverage += p.Coverage
		s.CoverageByCrop[p.Crop] += p.Coverage
	}
	for _, c := range claims {
		s.ClaimsByStatus[c.Status]++
		s.ClaimsByDamage[c.DamageType]++
		s.TotalClaimed += c.Amount
		s.TotalApproved += c.ApprovedAmount
	}
	for _, a := range assessments {
		if a.RiskLevel != "" {
			s.RiskDistribution[a.RiskLevel]++
		}
	}
	return s
}
