package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claim statuses
const (
	ClaimPending     = "pending"
	ClaimUnderReview = "under_review"
	ClaimApproved    = "approved"
	ClaimRejected    = "rejected"
	ClaimPaid        = "paid"
)

type Claim struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClaimNumber    string             `bson:"claimNumber" json:"claimNumber"`
	FarmerID       string             `bson:"farmerId" json:"farmerId"`
	FieldID        string             `bson:"fieldId" json:"fieldId"`
	PolicyID       string             `bson:"policyId,omitempty" json:"policyId,omitempty"`
	Crop           string             `bson:"crop" json:"crop"`
	DamageType     string             `bson:"damageType" json:"damageType"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Amount         float64            `bson:"amount" json:"amount"`
	ApprovedAmount float64            `bson:"approvedAmount" json:"approvedAmount"`
	Status         string             `bson:"status" json:"status"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Evidence       []string           `bson:"evidence" json:"evidence"`
	IncidentDate   *time.Time         `bson:"incidentDate,omitempty" json:"incidentDate,omitempty"`
	ReviewedBy     string             `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CreateClaimRequest struct {
	FieldID      string     `json:"fieldId" binding:"required"`
	PolicyID     string     `json:"policyId"`
	Crop         string     `json:"crop" binding:"required"`
	DamageType   string     `json:"damageType" binding:"required,oneof=drought flood pest disease hail fire other"`
	Amount       float64    `json:"amount" binding:"required,gt=0"`
	Description  string     `json:"description"`
	IncidentDate *time.Time `json:"incidentDate"`
}

type UpdateClaimRequest struct {
	Status         *string  `json:"status" binding:"omitempty,oneof=pending under_review approved rejected paid"`
	ApprovedAmount *float64 `json:"approvedAmount" binding:"omitempty,gte=0"`
	Notes          *string  `json:"notes"`
}

// ToSet returns only the submitted fields.
func (r UpdateClaimRequest) ToSet(now time.Time) bson.M {
	s := setter{}
	s.str("status", r.Status)
	s.num("approvedAmount", r.ApprovedAmount)
	s.str("notes", r.Notes)
	return s.done(now)
}
