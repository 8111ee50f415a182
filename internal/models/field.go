package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field statuses
const (
	FieldStatusActive    = "active"
	FieldStatusFallow    = "fallow"
	FieldStatusHarvested = "harvested"
)

type Field struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmerID  string             `bson:"farmerId" json:"farmerId"` // the farmer's user id
	Name      string             `bson:"name" json:"name"`
	Crop      string             `bson:"crop" json:"crop"`
	Area      float64            `bson:"area" json:"area"` // hectares
	Location  Location           `bson:"location" json:"location"`
	SoilType  string             `bson:"soilType,omitempty" json:"soilType,omitempty"`
	Status    string             `bson:"status" json:"status"`
	RiskLevel string             `bson:"riskLevel,omitempty" json:"riskLevel,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CreateFieldRequest struct {
	Name     string   `json:"name" binding:"required"`
	Crop     string   `json:"crop" binding:"required"`
	Area     float64  `json:"area" binding:"required,gt=0"`
	Location Location `json:"location"`
	SoilType string   `json:"soilType"`
	Status   string   `json:"status" binding:"omitempty,oneof=active fallow harvested"`
}
