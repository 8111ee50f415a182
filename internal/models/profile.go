package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FarmerProfile is created alongside a farmer user.
type FarmerProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"userId" json:"userId"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	FarmSize     float64            `bson:"farmSize" json:"farmSize"`
	PrimaryCrops []string           `bson:"primaryCrops,omitempty" json:"primaryCrops,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// InsurerProfile is created alongside an insurer user.
type InsurerProfile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"userId"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CompanyName   string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	LicenseNumber string             `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// AssessorProfile is created alongside an assessor user.
type AssessorProfile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"userId"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization   string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Specialization string             `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Region         string             `bson:"region,omitempty" json:"region,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
