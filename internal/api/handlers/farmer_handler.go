// server/internal/api/handlers/farmer_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"
	"starhawk-api-server/internal/s3"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const maxEvidenceSize = 10 << 20

type FarmerHandler struct {
	*Base
	// Uploader is nil when object storage is not configured.
	Uploader *s3.Uploader
}

// FarmerOverview is the headline block of the farmer dashboard.
type FarmerOverview struct {
	TotalPolicies  int     `json:"totalPolicies"`
	ActivePolicies int     `json:"activePolicies"`
	TotalCoverage  float64 `json:"totalCoverage"`
	TotalClaims    int     `json:"totalClaims"`
	PendingClaims  int     `json:"pendingClaims"`
	TotalFields    int     `json:"totalFields"`
	TotalArea      float64 `json:"totalArea"`
}

func (h *FarmerHandler) Dashboard(c *gin.Context) {
	filter := bson.M{"farmerId": currentUserID(c)}

	var (
		policies []models.Policy
		claims   []models.Claim
		fields   []models.Field
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		policies, err = h.Store.Policies.Find(ctx, filter)
		return err
	})
	g.Go(func() (err error) {
		claims, err = h.Store.Claims.Find(ctx, filter)
		return err
	})
	g.Go(func() (err error) {
		fields, err = h.Store.Fields.Find(ctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		h.internalError(c, err, "load farmer dashboard")
		return
	}

	overview := FarmerOverview{
		TotalPolicies: len(policies),
		TotalClaims:   len(claims),
		TotalFields:   len(fields),
	}
	for _, p := range policies {
		if p.Status == models.PolicyActive {
			overview.ActivePolicies++
			overview.TotalCoverage += p.Coverage
		}
	}
	for _, cl := range claims {
		if cl.Status == models.ClaimPending || cl.Status == models.ClaimUnderReview {
			overview.PendingClaims++
		}
	}
	for _, f := range fields {
		overview.TotalArea += f.Area
	}

	response.Success(c, http.StatusOK, gin.H{
		"overview": overview,
		"policies": nonNil(policies),
		"claims":   nonNil(claims),
		"fields":   nonNil(fields),
	})
}

func (h *FarmerHandler) GetPolicies(c *gin.Context) {
	policies, err := h.Store.Policies.Find(c.Request.Context(),
		bson.M{"farmerId": currentUserID(c)}, newest(c))
	if err != nil {
		h.internalError(c, err, "list farmer policies")
		return
	}
	response.Success(c, http.StatusOK, nonNil(policies))
}

func (h *FarmerHandler) GetClaims(c *gin.Context) {
	claims, err := h.Store.Claims.Find(c.Request.Context(),
		bson.M{"farmerId": currentUserID(c)}, newest(c))
	if err != nil {
		h.internalError(c, err, "list farmer claims")
		return
	}
	response.Success(c, http.StatusOK, nonNil(claims))
}

func (h *FarmerHandler) GetClaim(c *gin.Context) {
	claim, ok := h.ownClaim(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, claim)
}

// CreateClaim files a claim against one of the farmer's own fields. A referenced
// policy must be the farmer's and cover that field and crop.
func (h *FarmerHandler) CreateClaim(c *gin.Context) {
	var req models.CreateClaimRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	farmerID := currentUserID(c)

	fieldID, err := primitive.ObjectIDFromHex(req.FieldID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid field id")
		return
	}
	if _, err := h.Store.Fields.FindOne(ctx, bson.M{"_id": fieldID, "farmerId": farmerID}); err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Field not found")
			return
		}
		h.internalError(c, err, "load claim field")
		return
	}

	var policy *models.Policy
	if req.PolicyID != "" {
		policyID, err := primitive.ObjectIDFromHex(req.PolicyID)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid policy id")
			return
		}
		policy, err = h.Store.Policies.FindOne(ctx, bson.M{"_id": policyID, "farmerId": farmerID})
		if err != nil {
			if isNotFound(err) {
				response.Error(c, http.StatusNotFound, "Policy not found")
				return
			}
			h.internalError(c, err, "load claim policy")
			return
		}
		if policy.FieldID != req.FieldID {
			response.Error(c, http.StatusBadRequest, "Policy does not cover this field")
			return
		}
		if !strings.EqualFold(policy.Crop, req.Crop) {
			response.Error(c, http.StatusBadRequest, "Claim crop does not match the policy crop")
			return
		}
	}

	now := time.Now().UTC()
	claim := models.Claim{
		ID:           primitive.NewObjectID(),
		ClaimNumber:  models.NewReference("CLM"),
		FarmerID:     farmerID,
		FieldID:      req.FieldID,
		PolicyID:     req.PolicyID,
		Crop:         req.Crop,
		DamageType:   req.DamageType,
		Description:  req.Description,
		Amount:       req.Amount,
		Status:       models.ClaimPending,
		Evidence:     []string{},
		IncidentDate: req.IncidentDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.Claims.Insert(ctx, &claim); err != nil {
		h.internalError(c, err, "create claim")
		return
	}

	h.publish(ctx, events.New(events.ClaimSubmitted, farmerID, "Claim submitted",
		fmt.Sprintf("Your claim %s has been submitted for review", claim.ClaimNumber), claim.ClaimNumber))
	if policy != nil && policy.InsurerID != "" {
		h.publish(ctx, events.New(events.ClaimSubmitted, policy.InsurerID, "New claim",
			fmt.Sprintf("Claim %s was filed against policy %s", claim.ClaimNumber, policy.PolicyNumber), claim.ClaimNumber))
	}

	response.SuccessMessage(c, http.StatusCreated, "Claim submitted successfully", claim)
}

// UploadEvidence stores a photo for one of the farmer's claims and appends its URL.
func (h *FarmerHandler) UploadEvidence(c *gin.Context) {
	if h.Uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}
	claim, ok := h.ownClaim(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "photo is required")
		return
	}
	if fileHeader.Size > maxEvidenceSize {
		response.Error(c, http.StatusBadRequest, "photo must be at most 10MB")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, err, "open uploaded photo")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	key := s3.EvidenceKey(claim.ClaimNumber, fileHeader.Filename)
	url, err := h.Uploader.UploadFile(ctx, file, key, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.internalError(c, err, "upload evidence")
		return
	}

	// Pushed rather than rewritten so concurrent uploads all land.
	if _, err := h.Store.Claims.Push(ctx, bson.M{"_id": claim.ID}, "evidence", url,
		bson.M{"updatedAt": time.Now().UTC()}); err != nil {
		h.internalError(c, err, "attach evidence")
		return
	}
	updated, err := h.Store.Claims.FindOne(ctx, bson.M{"_id": claim.ID})
	if err != nil {
		h.internalError(c, err, "reload claim")
		return
	}

	response.SuccessMessage(c, http.StatusCreated, "Evidence uploaded", gin.H{
		"url":      url,
		"evidence": nonNil(updated.Evidence),
	})
}

func (h *FarmerHandler) GetFields(c *gin.Context) {
	fields, err := h.Store.Fields.Find(c.Request.Context(),
		bson.M{"farmerId": currentUserID(c)}, newest(c))
	if err != nil {
		h.internalError(c, err, "list farmer fields")
		return
	}
	response.Success(c, http.StatusOK, nonNil(fields))
}

func (h *FarmerHandler) CreateField(c *gin.Context) {
	var req models.CreateFieldRequest
	if !bind(c, &req) {
		return
	}
	status := req.Status
	if status == "" {
		status = models.FieldStatusActive
	}

	now := time.Now().UTC()
	field := models.Field{
		ID:        primitive.NewObjectID(),
		FarmerID:  currentUserID(c),
		Name:      req.Name,
		Crop:      req.Crop,
		Area:      req.Area,
		Location:  req.Location,
		SoilType:  req.SoilType,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.Fields.Insert(c.Request.Context(), &field); err != nil {
		h.internalError(c, err, "create field")
		return
	}
	response.SuccessMessage(c, http.StatusCreated, "Field registered successfully", field)
}

func (h *FarmerHandler) GetAssessments(c *gin.Context) {
	assessments, err := h.Store.Assessments.Find(c.Request.Context(),
		bson.M{"farmerId": currentUserID(c)}, newest(c))
	if err != nil {
		h.internalError(c, err, "list farmer assessments")
		return
	}
	response.Success(c, http.StatusOK, nonNil(assessments))
}

func (h *FarmerHandler) ownClaim(c *gin.Context) (*models.Claim, bool) {
	id, ok := objectID(c, "claim")
	if !ok {
		return nil, false
	}
	claim, err := h.Store.Claims.FindOne(c.Request.Context(), bson.M{"_id": id, "farmerId": currentUserID(c)})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Claim not found")
			return nil, false
		}
		h.internalError(c, err, "load claim")
		return nil, false
	}
	return claim, true
}
