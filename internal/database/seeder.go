// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/models"
	"starhawk-api-server/internal/risk"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// SeedResult lists the seeded accounts by role.
type SeedResult struct {
	Users map[string]models.User
}

// EnsureAdmin creates the admin account if no user with that email exists.
func EnsureAdmin(ctx context.Context, store *Store, email, password string, log *zap.Logger) error {
	email = models.NormalizeEmail(email)
	count, err := store.Users.Count(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("admin already exists, seeding skipped", zap.String("email", email))
		return nil
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  hashedPassword,
		Role:      models.RoleAdmin,
		Name:      "Platform Admin",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Users.Insert(ctx, &admin); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil
		}
		return err
	}

	log.Info("admin seeded", zap.String("email", email))
	return nil
}

// Clear removes every document from every collection.
func Clear(ctx context.Context, store *Store) error {
	clears := []func(context.Context) (string, error){
		clearer(store.Users), clearer(store.Farmers), clearer(store.Insurers),
		clearer(store.Assessors), clearer(store.Policies), clearer(store.Claims),
		clearer(store.Assessments), clearer(store.Fields), clearer(store.Reports),
		clearer(store.Notifications), clearer(store.Sessions),
	}
	for _, fn := range clears {
		if name, err := fn(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}

func clearer[T any](c Collection[T]) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		_, err := c.DeleteMany(ctx, bson.M{})
		return c.Name(), err
	}
}

// Seed clears the store and loads a demo data set with one account per role.
func Seed(ctx context.Context, store *Store, log *zap.Logger) (*SeedResult, error) {
	if err := Clear(ctx, store); err != nil {
		return nil, err
	}
	log.Info("collections cleared")

	hashed, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	day := 24 * time.Hour
	users := map[string]models.User{}
	for _, u := range []struct{ role, email, name, phone string }{
		{models.RoleFarmer, "farmer@starhawk.rw", "Jean Baptiste Uwimana", "+250788000001"},
		{models.RoleInsurer, "insurer@starhawk.rw", "Agri Shield Insurance", "+250788000002"},
		{models.RoleAssessor, "assessor@starhawk.rw", "Claudine Mukamana", "+250788000003"},
		{models.RoleGovernment, "government@starhawk.rw", "Ministry of Agriculture", "+250788000004"},
		{models.RoleAdmin, "admin@starhawk.rw", "Platform Admin", "+250788000005"},
	} {
		user := models.User{
			ID:        primitive.NewObjectID(),
			Email:     u.email,
			Password:  hashed,
			Role:      u.role,
			Name:      u.name,
			Phone:     u.phone,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.Users.Insert(ctx, &user); err != nil {
			return nil, err
		}
		users[u.role] = user
	}
	farmer, insurer, assessor := users[models.RoleFarmer], users[models.RoleInsurer], users[models.RoleAssessor]

	if err := store.Farmers.Insert(ctx, &models.FarmerProfile{
		UserID: farmer.ID.Hex(), Name: farmer.Name, Email: farmer.Email, Phone: farmer.Phone,
		Location: "Musanze, Northern Province", FarmSize: 4.5,
		PrimaryCrops: []string{"maize", "potatoes", "beans"}, CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := store.Insurers.Insert(ctx, &models.InsurerProfile{
		UserID: insurer.ID.Hex(), Name: insurer.Name, Email: insurer.Email, Phone: insurer.Phone,
		CompanyName: "Agri Shield Insurance Ltd", LicenseNumber: "INS-RW-2024-001", CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := store.Assessors.Insert(ctx, &models.AssessorProfile{
		UserID: assessor.ID.Hex(), Name: assessor.Name, Email: assessor.Email, Phone: assessor.Phone,
		Organization: "Rwanda Agriculture Board", Specialization: "crop damage", Region: "Northern Province",
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	fields := []models.Field{
		{
			ID: primitive.NewObjectID(), FarmerID: farmer.ID.Hex(), Name: "North Plot", Crop: "maize", Area: 2.5,
			Location: models.Location{Region: "Northern Province", District: "Musanze", Latitude: -1.4995, Longitude: 29.6346},
			SoilType: "volcanic loam", Status: models.FieldStatusActive, RiskLevel: string(risk.LevelLow),
		},
		{
			ID: primitive.NewObjectID(), FarmerID: farmer.ID.Hex(), Name: "Valley Plot", Crop: "potatoes", Area: 2.0,
			Location: models.Location{Region: "Northern Province", District: "Musanze", Latitude: -1.5102, Longitude: 29.6021},
			SoilType: "clay", Status: models.FieldStatusActive, RiskLevel: string(risk.LevelMedium),
		},
	}
	for i := range fields {
		fields[i].CreatedAt, fields[i].UpdatedAt = now, now
		if err := store.Fields.Insert(ctx, &fields[i]); err != nil {
			return nil, err
		}
	}

	policies := []models.Policy{
		{
			ID: primitive.NewObjectID(), PolicyNumber: models.NewReference("POL"), FarmerID: farmer.ID.Hex(),
			FieldID: fields[0].ID.Hex(), InsurerID: insurer.ID.Hex(), Crop: "maize", Status: models.PolicyActive,
			Premium: 45000, Coverage: 900000, StartDate: now.Add(-60 * day), EndDate: now.Add(305 * day),
		},
		{
			ID: primitive.NewObjectID(), PolicyNumber: models.NewReference("POL"), FarmerID: farmer.ID.Hex(),
			FieldID: fields[1].ID.Hex(), InsurerID: insurer.ID.Hex(), Crop: "potatoes", Status: models.PolicyPending,
			Premium: 38000, Coverage: 750000, StartDate: now, EndDate: now.Add(365 * day),
		},
	}
	for i := range policies {
		policies[i].CreatedAt, policies[i].UpdatedAt = now, now
		if err := store.Policies.Insert(ctx, &policies[i]); err != nil {
			return nil, err
		}
	}

	incident := now.Add(-10 * day)
	claims := []models.Claim{
		{
			ID: primitive.NewObjectID(), ClaimNumber: models.NewReference("CLM"), FarmerID: farmer.ID.Hex(),
			FieldID: fields[0].ID.Hex(), PolicyID: policies[0].ID.Hex(), Crop: "maize", DamageType: "drought",
			Description: "Extended dry spell during tasseling", Amount: 250000, Status: models.ClaimUnderReview,
			Evidence: []string{}, IncidentDate: &incident,
		},
		{
			ID: primitive.NewObjectID(), ClaimNumber: models.NewReference("CLM"), FarmerID: farmer.ID.Hex(),
			FieldID: fields[1].ID.Hex(), Crop: "potatoes", DamageType: "pest",
			Description: "Late blight spotted on lower leaves", Amount: 120000, Status: models.ClaimPending,
			Evidence: []string{},
		},
	}
	for i := range claims {
		claims[i].CreatedAt, claims[i].UpdatedAt = now, now
		if err := store.Claims.Insert(ctx, &claims[i]); err != nil {
			return nil, err
		}
	}

	factors := risk.Factors{
		SoilQuality: "good", WeatherExposure: "moderate", PestHistory: "occasional",
		DiseaseSusceptibility: "medium", MarketAccess: "good", IrrigationAvailability: "partial",
	}
	result, err := risk.Evaluate(factors)
	if err != nil {
		return nil, err
	}
	completed := now.Add(-2 * day)
	scheduled := now.Add(3 * day)
	assessments := []models.Assessment{
		{
			ID: primitive.NewObjectID(), FieldID: fields[0].ID.Hex(), FarmerID: farmer.ID.Hex(),
			AssessorID: assessor.ID.Hex(), Status: models.AssessmentCompleted, RiskLevel: string(result.Level),
			RiskScore: &result.Score, RiskFactors: &factors, Findings: "Healthy stand, minor moisture stress",
			Recommendations: "Mulch between rows", CompletedAt: &completed,
		},
		{
			ID: primitive.NewObjectID(), FieldID: fields[1].ID.Hex(), FarmerID: farmer.ID.Hex(),
			AssessorID: assessor.ID.Hex(), Status: models.AssessmentScheduled, ScheduledDate: &scheduled,
		},
	}
	for i := range assessments {
		assessments[i].CreatedAt, assessments[i].UpdatedAt = now, now
		if err := store.Assessments.Insert(ctx, &assessments[i]); err != nil {
			return nil, err
		}
	}

	// Left generating so the report worker fills it from the seeded data.
	if err := store.Reports.Insert(ctx, &models.Report{
		ID: primitive.NewObjectID(), ReportID: models.NewReference("RPT"), Title: "Monthly summary",
		Type: "summary", ReportType: "monthly", Period: now.Format("2006-01"), Status: models.ReportGenerating,
		RequestedBy: users[models.RoleGovernment].ID.Hex(), CreatedAt: now.Add(-time.Minute),
	}); err != nil {
		return nil, err
	}

	log.Info("seed complete", zap.Int("users", len(users)), zap.Int("fields", len(fields)),
		zap.Int("policies", len(policies)), zap.Int("claims", len(claims)))
	return &SeedResult{Users: users}, nil
}
