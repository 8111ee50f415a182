package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User struct matches the document in the users collection.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	Name      string             `bson:"name" json:"name"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Profile   map[string]string  `bson:"profile,omitempty" json:"profile,omitempty"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	LastLogin *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest is the registration schema. Role specific profile fields are optional.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,role"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`

	// farmer
	Location     string   `json:"location"`
	FarmSize     float64  `json:"farmSize" binding:"gte=0"`
	PrimaryCrops []string `json:"primaryCrops"`
	// insurer
	CompanyName   string `json:"companyName"`
	LicenseNumber string `json:"licenseNumber"`
	// assessor
	Organization   string `json:"organization"`
	Specialization string `json:"specialization"`
	Region         string `json:"region"`
}

// LoginRequest looks a user up by email and, when given, role.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,role"`
}

// UpdateUserRequest is the admin update schema.
type UpdateUserRequest struct {
	Name     *string           `json:"name" binding:"omitempty,min=1"`
	Phone    *string           `json:"phone"`
	Role     *string           `json:"role" binding:"omitempty,role"`
	IsActive *bool             `json:"isActive"`
	Profile  map[string]string `json:"profile"`
}

// ToSet returns only the submitted fields.
func (r UpdateUserRequest) ToSet(now time.Time) bson.M {
	s := setter{}
	s.str("name", r.Name)
	s.str("phone", r.Phone)
	s.str("role", r.Role)
	s.boolean("isActive", r.IsActive)
	if r.Profile != nil {
		s["profile"] = r.Profile
	}
	return s.done(now)
}
