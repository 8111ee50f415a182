package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidPeriod = errors.New("invalid report period")

// Window is a half-open [From, To) range on createdAt. The zero Window is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) IsZero() bool { return w.From.IsZero() && w.To.IsZero() }

func (w Window) filter(base bson.M) bson.M {
	f := bson.M{}
	for k, v := range base {
		f[k] = v
	}
	if !w.IsZero() {
		f["createdAt"] = bson.M{"$gte": w.From, "$lt": w.To}
	}
	return f
}

// PeriodFormats documents the accepted period per report type.
var PeriodFormats = map[string]string{
	"monthly":   "YYYY-MM",
	"quarterly": "YYYY-Qn",
	"annual":    "YYYY",
	"custom":    "YYYY-MM-DD..YYYY-MM-DD",
}

// ParsePeriod turns a report period into a window. Custom ranges include their end day.
func ParsePeriod(reportType, period string) (Window, error) {
	period = strings.TrimSpace(period)
	invalid := func() (Window, error) {
		return Window{}, fmt.Errorf("%w: %s period must look like %s", ErrInvalidPeriod, reportType, PeriodFormats[reportType])
	}

	switch reportType {
	case "monthly":
		from, err := time.Parse("2006-01", period)
		if err != nil {
			return invalid()
		}
		return Window{From: from, To: from.AddDate(0, 1, 0)}, nil

	case "quarterly":
		year, quarter, ok := strings.Cut(period, "-Q")
		if !ok || len(year) != 4 {
			return invalid()
		}
		y, yerr := strconv.Atoi(year)
		q, qerr := strconv.Atoi(quarter)
		if yerr != nil || qerr != nil || q < 1 || q > 4 {
			return invalid()
		}
		from := time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Window{From: from, To: from.AddDate(0, 3, 0)}, nil

	case "annual":
		from, err := time.Parse("2006", period)
		if err != nil {
			return invalid()
		}
		return Window{From: from, To: from.AddDate(1, 0, 0)}, nil

	case "custom":
		start, end, ok := strings.Cut(period, "..")
		if !ok {
			return invalid()
		}
		from, ferr := time.Parse("2006-01-02", strings.TrimSpace(start))
		last, lerr := time.Parse("2006-01-02", strings.TrimSpace(end))
		if ferr != nil || lerr != nil {
			return invalid()
		}
		if last.Before(from) {
			return Window{}, fmt.Errorf("%w: custom period ends before it starts", ErrInvalidPeriod)
		}
		return Window{From: from, To: last.AddDate(0, 0, 1)}, nil
	}
	return Window{}, fmt.Errorf("%w: unknown report type %q", ErrInvalidPeriod, reportType)
}

// Report sections
const (
	SectionFarmers     = "farmers"
	SectionFields      = "fields"
	SectionPolicies    = "policies"
	SectionClaims      = "claims"
	SectionAssessments = "assessments"
)

var sectionsByType = map[string][]string{
	"summary":  {SectionFarmers, SectionFields, SectionPolicies, SectionClaims, SectionAssessments},
	"claims":   {SectionClaims},
	"policies": {SectionPolicies},
	"risk":     {SectionFields, SectionAssessments},
}

// Scope selects what a report covers.
type Scope struct {
	Type   string
	Window Window
}

// Sections returns the sections a report type covers. Unknown types get everything.
func (s Scope) Sections() []string {
	if sections, ok := sectionsByType[s.Type]; ok {
		return sections
	}
	return sectionsByType["summary"]
}

// Generate loads only what the scope needs, restricted to documents created inside its window.
func Generate(ctx context.Context, store *database.Store, scope Scope) (*models.Summary, error) {
	var (
		farmers     int64
		fields      []models.Field
		policies    []models.Policy
		claims      []models.Claim
		assessments []models.Assessment
	)

	sections := scope.Sections()
	w := scope.Window
	g, ctx := errgroup.WithContext(ctx)
	for _, section := range sections {
		switch section {
		case SectionFarmers:
			g.Go(func() (err error) {
				farmers, err = store.Users.Count(ctx, w.filter(bson.M{"role": models.RoleFarmer}))
				return err
			})
		case SectionFields:
			g.Go(func() (err error) {
				fields, err = store.Fields.Find(ctx, w.filter(nil))
				return err
			})
		case SectionPolicies:
			g.Go(func() (err error) {
				policies, err = store.Policies.Find(ctx, w.filter(nil))
				return err
			})
		case SectionClaims:
			g.Go(func() (err error) {
				claims, err = store.Claims.Find(ctx, w.filter(nil))
				return err
			})
		case SectionAssessments:
			g.Go(func() (err error) {
				assessments, err = store.Assessments.Find(ctx, w.filter(nil))
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := Build(time.Now().UTC(), farmers, fields, policies, claims, assessments)
	s.Type = scope.Type
	s.Sections = append([]string(nil), sections...)
	if !w.IsZero() {
		from, to := w.From, w.To
		s.PeriodStart, s.PeriodEnd = &from, &to
	}
	return s, nil
}
