// server/internal/api/handlers/assessor_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"
	"starhawk-api-server/internal/risk"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AssessorHandler struct {
	*Base
}

type AssessorOverview struct {
	TotalAssessments int              `json:"totalAssessments"`
	ByStatus         map[string]int   `json:"byStatus"`
	HighRiskFields   int              `json:"highRiskFields"`
	FieldsByRisk     map[string]int64 `json:"fieldsByRisk"`
}

func (h *AssessorHandler) Dashboard(c *gin.Context) {
	var (
		assessments []models.Assessment
		fields      []models.Field
		mine        = bson.M{"assessorId": currentUserID(c)}
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		assessments, err = h.Store.Assessments.Find(ctx, mine, database.Newest(0))
		return err
	})
	g.Go(func() (err error) {
		fields, err = h.Store.Fields.Find(ctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		h.internalError(c, err, "load assessor dashboard")
		return
	}

	overview := AssessorOverview{
		TotalAssessments: len(assessments),
		ByStatus:         map[string]int{},
		FieldsByRisk:     map[string]int64{},
	}
	for _, a := range assessments {
		overview.ByStatus[a.Status]++
	}
	highRisk := []models.Field{}
	for _, f := range fields {
		if f.RiskLevel == "" {
			continue
		}
		overview.FieldsByRisk[f.RiskLevel]++
		if f.RiskLevel == string(risk.LevelHigh) {
			highRisk = append(highRisk, f)
		}
	}
	overview.HighRiskFields = len(highRisk)

	response.Success(c, http.StatusOK, gin.H{
		"overview":       overview,
		"assessments":    nonNil(assessments),
		"highRiskFields": highRisk,
	})
}

func (h *AssessorHandler) GetAssessments(c *gin.Context) {
	filter := bson.M{"assessorId": currentUserID(c)}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	assessments, err := h.Store.Assessments.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list assessor assessments")
		return
	}
	response.Success(c, http.StatusOK, nonNil(assessments))
}

func (h *AssessorHandler) CreateAssessment(c *gin.Context) {
	var req models.CreateAssessmentRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	fieldID, err := primitive.ObjectIDFromHex(req.FieldID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid field id")
		return
	}
	field, err := h.Store.Fields.FindOne(ctx, bson.M{"_id": fieldID})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Field not found")
			return
		}
		h.internalError(c, err, "load assessment field")
		return
	}

	status := req.Status
	if status == "" {
		status = models.AssessmentScheduled
	}
	now := time.Now().UTC()
	assessment := models.Assessment{
		ID:              primitive.NewObjectID(),
		FieldID:         req.FieldID,
		FarmerID:        field.FarmerID,
		AssessorID:      currentUserID(c),
		Status:          status,
		RiskLevel:       req.RiskLevel,
		Findings:        req.Findings,
		Recommendations: req.Recommendations,
		ScheduledDate:   req.ScheduledDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.RiskFactors != nil {
		res, ok := h.score(c, *req.RiskFactors)
		if !ok {
			return
		}
		assessment.RiskFactors = req.RiskFactors
		assessment.RiskScore = &res.Score
		assessment.RiskLevel = string(res.Level)
	}
	if status == models.AssessmentCompleted {
		assessment.CompletedAt = &now
	}

	if err := h.Store.Assessments.Insert(ctx, &assessment); err != nil {
		h.internalError(c, err, "create assessment")
		return
	}
	if status == models.AssessmentCompleted {
		h.completed(c, &assessment)
	}
	response.SuccessMessage(c, http.StatusCreated, "Assessment created successfully", assessment)
}

// UpdateAssessment changes one of the caller's own assessments. Submitted risk
// factors are rescored and override any submitted risk level.
func (h *AssessorHandler) UpdateAssessment(c *gin.Context) {
	id, ok := objectID(c, "assessment")
	if !ok {
		return
	}
	var req models.UpdateAssessmentRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	filter := bson.M{"_id": id, "assessorId": currentUserID(c)}
	before, err := h.Store.Assessments.FindOne(ctx, filter)
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Assessment not found")
			return
		}
		h.internalError(c, err, "load assessment")
		return
	}

	now := time.Now().UTC()
	set := req.ToSet(now)
	if set == nil {
		response.Error(c, http.StatusBadRequest, "No fields to update")
		return
	}
	if req.RiskFactors != nil {
		res, ok := h.score(c, *req.RiskFactors)
		if !ok {
			return
		}
		set["riskScore"] = res.Score
		set["riskLevel"] = string(res.Level)
	}
	becameCompleted := req.Status != nil && *req.Status == models.AssessmentCompleted &&
		before.Status != models.AssessmentCompleted
	if becameCompleted {
		set["completedAt"] = now
	}

	if _, err := h.Store.Assessments.UpdateOne(ctx, filter, set); err != nil {
		h.internalError(c, err, "update assessment")
		return
	}
	assessment, err := h.Store.Assessments.FindOne(ctx, filter)
	if err != nil {
		h.internalError(c, err, "reload assessment")
		return
	}
	if becameCompleted {
		h.completed(c, assessment)
	} else if assessment.Status == models.AssessmentCompleted {
		h.syncFieldRisk(c, assessment)
	}
	response.SuccessMessage(c, http.StatusOK, "Assessment updated successfully", assessment)
}

func (h *AssessorHandler) GetFields(c *gin.Context) {
	filter := bson.M{}
	if level := c.Query("riskLevel"); level != "" {
		filter["riskLevel"] = level
	}
	fields, err := h.Store.Fields.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list fields")
		return
	}
	response.Success(c, http.StatusOK, nonNil(fields))
}

// RiskScore evaluates risk factors without storing anything.
func (h *AssessorHandler) RiskScore(c *gin.Context) {
	var factors risk.Factors
	if !bind(c, &factors) {
		return
	}
	res, ok := h.score(c, factors)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *AssessorHandler) score(c *gin.Context, f risk.Factors) (risk.Result, bool) {
	res, err := risk.Evaluate(f)
	if err != nil {
		if errors.Is(err, risk.ErrUnknownOption) {
			response.Error(c, http.StatusBadRequest, err.Error())
			return risk.Result{}, false
		}
		h.internalError(c, err, "evaluate risk")
		return risk.Result{}, false
	}
	return res, true
}

// completed propagates the outcome to the field and tells the farmer.
func (h *AssessorHandler) completed(c *gin.Context, a *models.Assessment) {
	h.syncFieldRisk(c, a)
	msg := "An assessment of your field has been completed"
	if a.RiskLevel != "" {
		msg = fmt.Sprintf("%s (risk level: %s)", msg, a.RiskLevel)
	}
	h.publish(c.Request.Context(), events.New(events.AssessmentCompleted, a.FarmerID,
		"Assessment completed", msg, a.ID.Hex()))
}

// syncFieldRisk copies a completed assessment's risk level onto its field.
// A failure is logged; the assessment itself is already saved.
func (h *AssessorHandler) syncFieldRisk(c *gin.Context, a *models.Assessment) {
	if a.RiskLevel == "" {
		return
	}
	fieldID, err := primitive.ObjectIDFromHex(a.FieldID)
	if err != nil {
		return
	}
	if _, err := h.Store.Fields.UpdateOne(c.Request.Context(), bson.M{"_id": fieldID},
		bson.M{"riskLevel": a.RiskLevel, "updatedAt": time.Now().UTC()}); err != nil {
		h.Log.Error("update field risk level", zap.String("fieldId", a.FieldID), zap.Error(err))
	}
}
