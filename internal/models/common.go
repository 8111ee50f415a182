// server/internal/models/common.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Roles
const (
	RoleFarmer     = "farmer"
	RoleInsurer    = "insurer"
	RoleAssessor   = "assessor"
	RoleGovernment = "government"
	RoleAdmin      = "admin"
)

// Roles lists every role a user can hold.
var Roles = []string{RoleFarmer, RoleInsurer, RoleAssessor, RoleGovernment, RoleAdmin}

// IsRole reports whether r is a known role.
func IsRole(r string) bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Location pins a field to a place.
type Location struct {
	Region    string  `bson:"region" json:"region"`
	District  string  `bson:"district,omitempty" json:"district,omitempty"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// NewReference builds a human-friendly identifier such as "CLM-1A2B3C4D".
func NewReference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
}

// setter collects the fields of an update request that were actually sent.
type setter bson.M

func (s setter) str(key string, v *string) {
	if v != nil {
		s[key] = *v
	}
}

func (s setter) num(key string, v *float64) {
	if v != nil {
		s[key] = *v
	}
}

func (s setter) boolean(key string, v *bool) {
	if v != nil {
		s[key] = *v
	}
}

func (s setter) when(key string, v *time.Time) {
	if v != nil {
		s[key] = *v
	}
}

// done returns nil when nothing was sent so callers can reject empty updates.
func (s setter) done(now time.Time) bson.M {
	if len(s) == 0 {
		return nil
	}
	s["updatedAt"] = now
	return bson.M(s)
}
