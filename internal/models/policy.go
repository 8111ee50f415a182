package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy statuses
const (
	PolicyPending   = "pending"
	PolicyActive    = "active"
	PolicyExpired   = "expired"
	PolicyCancelled = "cancelled"
)

type Policy struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PolicyNumber string             `bson:"policyNumber" json:"policyNumber"`
	FarmerID     string             `bson:"farmerId" json:"farmerId"`
	FieldID      string             `bson:"fieldId" json:"fieldId"`
	InsurerID    string             `bson:"insurerId,omitempty" json:"insurerId,omitempty"`
	Crop         string             `bson:"crop" json:"crop"`
	Status       string             `bson:"status" json:"status"`
	Premium      float64            `bson:"premium" json:"premium"`
	Coverage     float64            `bson:"coverage" json:"coverage"`
	StartDate    time.Time          `bson:"startDate" json:"startDate"`
	EndDate      time.Time          `bson:"endDate" json:"endDate"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CreatePolicyRequest struct {
	FarmerID  string    `json:"farmerId" binding:"required"`
	FieldID   string    `json:"fieldId" binding:"required"`
	Crop      string    `json:"crop" binding:"required"`
	Premium   float64   `json:"premium" binding:"required,gt=0"`
	Coverage  float64   `json:"coverage" binding:"required,gt=0"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
	Status    string    `json:"status" binding:"omitempty,oneof=pending active expired cancelled"`
}

type UpdatePolicyRequest struct {
	Status    *string    `json:"status" binding:"omitempty,oneof=pending active expired cancelled"`
	Premium   *float64   `json:"premium" binding:"omitempty,gt=0"`
	Coverage  *float64   `json:"coverage" binding:"omitempty,gt=0"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// ToSet returns only the submitted fields.
func (r UpdatePolicyRequest) ToSet(now time.Time) bson.M {
	s := setter{}
	s.str("status", r.Status)
	s.num("premium", r.Premium)
	s.num("coverage", r.Coverage)
	s.when("startDate", r.StartDate)
	s.when("endDate", r.EndDate)
	return s.done(now)
}
