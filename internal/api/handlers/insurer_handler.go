// server/internal/api/handlers/insurer_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const dashboardRecent = 5

type InsurerHandler struct {
	*Base
}

type InsurerOverview struct {
	TotalPolicies  int     `json:"totalPolicies"`
	ActivePolicies int     `json:"activePolicies"`
	TotalPremium   float64 `json:"totalPremium"`
	TotalCoverage  float64 `json:"totalCoverage"`
	TotalClaims    int     `json:"totalClaims"`
	PendingClaims  int     `json:"pendingClaims"`
	ApprovedAmount float64 `json:"approvedAmount"`
}

func (h *InsurerHandler) Dashboard(c *gin.Context) {
	var (
		policies []models.Policy
		claims   []models.Claim
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		policies, err = h.Store.Policies.Find(ctx, nil, database.Newest(0))
		return err
	})
	g.Go(func() (err error) {
		claims, err = h.Store.Claims.Find(ctx, nil, database.Newest(0))
		return err
	})
	if err := g.Wait(); err != nil {
		h.internalError(c, err, "load insurer dashboard")
		return
	}

	overview := InsurerOverview{TotalPolicies: len(policies), TotalClaims: len(claims)}
	for _, p := range policies {
		overview.TotalPremium += p.Premium
		overview.TotalCoverage += p.Coverage
		if p.Status == models.PolicyActive {
			overview.ActivePolicies++
		}
	}
	for _, cl := range claims {
		switch cl.Status {
		case models.ClaimPending, models.ClaimUnderReview:
			overview.PendingClaims++
		case models.ClaimApproved, models.ClaimPaid:
			overview.ApprovedAmount += cl.ApprovedAmount
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"overview":       overview,
		"recentPolicies": nonNil(head(policies, dashboardRecent)),
		"recentClaims":   nonNil(head(claims, dashboardRecent)),
	})
}

func (h *InsurerHandler) GetPolicies(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if farmerID := c.Query("farmerId"); farmerID != "" {
		filter["farmerId"] = farmerID
	}
	policies, err := h.Store.Policies.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list policies")
		return
	}
	response.Success(c, http.StatusOK, nonNil(policies))
}

// CreatePolicy issues a policy on a farmer's field.
func (h *InsurerHandler) CreatePolicy(c *gin.Context) {
	var req models.CreatePolicyRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	fieldID, err := primitive.ObjectIDFromHex(req.FieldID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid field id")
		return
	}
	if _, err := h.Store.Fields.FindOne(ctx, bson.M{"_id": fieldID, "farmerId": req.FarmerID}); err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Field not found")
			return
		}
		h.internalError(c, err, "load policy field")
		return
	}

	status := req.Status
	if status == "" {
		status = models.PolicyPending
	}
	now := time.Now().UTC()
	policy := models.Policy{
		ID:           primitive.NewObjectID(),
		PolicyNumber: models.NewReference("POL"),
		FarmerID:     req.FarmerID,
		FieldID:      req.FieldID,
		InsurerID:    currentUserID(c),
		Crop:         req.Crop,
		Status:       status,
		Premium:      req.Premium,
		Coverage:     req.Coverage,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.Policies.Insert(ctx, &policy); err != nil {
		h.internalError(c, err, "create policy")
		return
	}

	h.publish(ctx, events.New(events.PolicyCreated, policy.FarmerID, "New policy",
		fmt.Sprintf("Policy %s covering %s was created", policy.PolicyNumber, policy.Crop), policy.PolicyNumber))
	response.SuccessMessage(c, http.StatusCreated, "Policy created successfully", policy)
}

func (h *InsurerHandler) UpdatePolicy(c *gin.Context) {
	id, ok := objectID(c, "policy")
	if !ok {
		return
	}
	var req models.UpdatePolicyRequest
	if !bind(c, &req) {
		return
	}
	set := req.ToSet(time.Now().UTC())
	if set == nil {
		response.Error(c, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx := c.Request.Context()
	matched, err := h.Store.Policies.UpdateOne(ctx, bson.M{"_id": id}, set)
	if err != nil {
		h.internalError(c, err, "update policy")
		return
	}
	if matched == 0 {
		response.Error(c, http.StatusNotFound, "Policy not found")
		return
	}
	policy, err := h.Store.Policies.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		h.internalError(c, err, "reload policy")
		return
	}

	h.publish(ctx, events.New(events.PolicyUpdated, policy.FarmerID, "Policy updated",
		fmt.Sprintf("Policy %s was updated (status: %s)", policy.PolicyNumber, policy.Status), policy.PolicyNumber))
	response.SuccessMessage(c, http.StatusOK, "Policy updated successfully", policy)
}

func (h *InsurerHandler) GetClaims(c *gin.Context) { h.listClaims(c) }
func (h *InsurerHandler) GetClaim(c *gin.Context) { h.getClaim(c) }
func (h *InsurerHandler) UpdateClaim(c *gin.Context) { h.updateClaim(c) }

func (h *InsurerHandler) GetAssessments(c *gin.Context) {
	filter := bson.M{}
	if fieldID := c.Query("fieldId"); fieldID != "" {
		filter["fieldId"] = fieldID
	}
	assessments, err := h.Store.Assessments.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list assessments")
		return
	}
	response.Success(c, http.StatusOK, nonNil(assessments))
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
