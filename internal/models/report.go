package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses
const (
	ReportGenerating = "generating"
	ReportCompleted  = "completed"
	ReportFailed     = "failed"
)

type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID    string             `bson:"reportId" json:"reportId"`
	Title       string             `bson:"title" json:"title"`
	Type        string             `bson:"type" json:"type"`
	ReportType  string             `bson:"reportType" json:"reportType"`
	Period      string             `bson:"period" json:"period"`
	Status      string             `bson:"status" json:"status"`
	Data        *Summary           `bson:"data,omitempty" json:"data,omitempty"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
	RequestedBy string             `bson:"requestedBy" json:"requestedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

type CreateReportRequest struct {
	Title      string `json:"title"`
	Type       string `json:"type" binding:"required,oneof=summary claims policies risk"`
	ReportType string `json:"reportType" binding:"required,oneof=monthly quarterly annual custom"`
	Period     string `json:"period" binding:"required"`
}

// Summary is the platform-wide aggregate used by dashboards and reports.
type Summary struct {
	GeneratedAt      time.Time          `bson:"generatedAt" json:"generatedAt"`
	Type             string             `bson:"type,omitempty" json:"type,omitempty"`
	PeriodStart      *time.Time         `bson:"periodStart,omitempty" json:"periodStart,omitempty"`
	PeriodEnd        *time.Time         `bson:"periodEnd,omitempty" json:"periodEnd,omitempty"`
	Sections         []string           `bson:"sections,omitempty" json:"sections,omitempty"`
	Farmers          int64              `bson:"farmers" json:"farmers"`
	Fields           int64              `bson:"fields" json:"fields"`
	TotalArea        float64            `bson:"totalArea" json:"totalArea"`
	Policies         int64              `bson:"policies" json:"policies"`
	PoliciesByStatus map[string]int64   `bson:"policiesByStatus" json:"policiesByStatus"`
	TotalPremium     float64            `bson:"totalPremium" json:"totalPremium"`
	TotalCoverage    float64            `bson:"totalCoverage" json:"totalCoverage"`
	CoverageByCrop   map[string]float64 `bson:"coverageByCrop" json:"coverageByCrop"`
	Claims           int64              `bson:"claims" json:"claims"`
	ClaimsByStatus   map[string]int64   `bson:"claimsByStatus" json:"claimsByStatus"`
	ClaimsByDamage   map[string]int64   `bson:"claimsByDamage" json:"claimsByDamage"`
	TotalClaimed     float64            `bson:"totalClaimed" json:"totalClaimed"`
	TotalApproved    float64            `bson:"totalApproved" json:"totalApproved"`
	Assessments      int64              `bson:"assessments" json:"assessments"`
	RiskDistribution map[string]int64   `bson:"riskDistribution" json:"riskDistribution"`
}

// Includes reports whether a section was generated. Summaries without a section list cover everything.
func (s *Summary) Includes(section string) bool {
	if len(s.Sections) == 0 {
		return true
	}
	for _, have := range s.Sections {
		if have == section {
			return true
		}
	}
	return false
}
