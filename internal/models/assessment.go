package models

import (
	"time"

	"starhawk-api-server/internal/risk"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assessment statuses
const (
	AssessmentScheduled  = "scheduled"
	AssessmentInProgress = "in_progress"
	AssessmentCompleted  = "completed"
)

type Assessment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FieldID         string             `bson:"fieldId" json:"fieldId"`
	FarmerID        string             `bson:"farmerId" json:"farmerId"`
	AssessorID      string             `bson:"assessorId" json:"assessorId"`
	Status          string             `bson:"status" json:"status"`
	RiskLevel       string             `bson:"riskLevel,omitempty" json:"riskLevel,omitempty"`
	RiskScore       *int               `bson:"riskScore,omitempty" json:"riskScore,omitempty"`
	RiskFactors     *risk.Factors      `bson:"riskFactors,omitempty" json:"riskFactors,omitempty"`
	Findings        string             `bson:"findings,omitempty" json:"findings,omitempty"`
	Recommendations string             `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	ScheduledDate   *time.Time         `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CreateAssessmentRequest struct {
	FieldID         string        `json:"fieldId" binding:"required"`
	Status          string        `json:"status" binding:"omitempty,oneof=scheduled in_progress completed"`
	RiskLevel       string        `json:"riskLevel" binding:"omitempty,oneof=low medium high"`
	RiskFactors     *risk.Factors `json:"riskFactors"`
	Findings        string        `json:"findings"`
	Recommendations string        `json:"recommendations"`
	ScheduledDate   *time.Time    `json:"scheduledDate"`
}

type UpdateAssessmentRequest struct {
	Status          *string       `json:"status" binding:"omitempty,oneof=scheduled in_progress completed"`
	RiskLevel       *string       `json:"riskLevel" binding:"omitempty,oneof=low medium high"`
	RiskFactors     *risk.Factors `json:"riskFactors"`
	Findings        *string       `json:"findings"`
	Recommendations *string       `json:"recommendations"`
	ScheduledDate   *time.Time    `json:"scheduledDate"`
}

// ToSet returns only the submitted fields. Risk factors are scored by the caller.
func (r UpdateAssessmentRequest) ToSet(now time.Time) bson.M {
	s := setter{}
	s.str("status", r.Status)
	s.str("riskLevel", r.RiskLevel)
	s.str("findings", r.Findings)
	s.str("recommendations", r.Recommendations)
	s.when("scheduledDate", r.ScheduledDate)
	if r.RiskFactors != nil {
		s["riskFactors"] = *r.RiskFactors
	}
	return s.done(now)
}
