package reports

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"starhawk-api-server/internal/analytics"
	"starhawk-api-server/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNotReady          = errors.New("report is not completed")
)

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Export renders a completed report in the requested format.
func Export(r *models.Report, format string) (*File, error) {
	if r.Status != models.ReportCompleted || r.Data == nil {
		return nil, ErrNotReady
	}
	switch format {
	case FormatXLSX:
		content, err := renderXLSX(r)
		if err != nil {
			return nil, err
		}
		return &File{
			Name:        r.ReportID + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := renderPDF(r)
		if err != nil {
			return nil, err
		}
		return &File{Name: r.ReportID + ".pdf", ContentType: "application/pdf", Content: content}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

type row struct {
	label string
	value interface{}
}

func overview(r *models.Report) []row {
	s := r.Data
	rows := []row{
		{"Report", r.ReportID},
		{"Title", r.Title},
		{"Type", r.Type},
		{"Period", fmt.Sprintf("%s (%s)", r.Period, r.ReportType)},
	}
	if s.PeriodStart != nil && s.PeriodEnd != nil {
		rows = append(rows, row{"Covers", fmt.Sprintf("%s to %s",
			s.PeriodStart.Format("2006-01-02"), s.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02"))})
	}
	rows = append(rows, row{"Generated", s.GeneratedAt.Format("2006-01-02 15:04 MST")})
	if s.Includes(analytics.SectionFarmers) {
		rows = append(rows, row{"Farmers", s.Farmers})
	}
	if s.Includes(analytics.SectionFields) {
		rows = append(rows, row{"Fields", s.Fields}, row{"Total area (ha)", s.TotalArea})
	}
	if s.Includes(analytics.SectionPolicies) {
		rows = append(rows, row{"Policies", s.Policies}, row{"Total premium", s.TotalPremium},
			row{"Total coverage", s.TotalCoverage})
	}
	if s.Includes(analytics.SectionClaims) {
		rows = append(rows, row{"Claims", s.Claims}, row{"Total claimed", s.TotalClaimed},
			row{"Total approved", s.TotalApproved})
	}
	if s.Includes(analytics.SectionAssessments) {
		rows = append(rows, row{"Assessments", s.Assessments})
	}
	return rows
}

type breakdown struct {
	title  string
	values map[string]float64
}

func breakdowns(s *models.Summary) []breakdown {
	counts := func(m map[string]int64) map[string]float64 {
		out := make(map[string]float64, len(m))
		for k, v := range m {
			out[k] = float64(v)
		}
		return out
	}
	var out []breakdown
	if s.Includes(analytics.SectionPolicies) {
		out = append(out, breakdown{"Policies by status", counts(s.PoliciesByStatus)})
	}
	if s.Includes(analytics.SectionClaims) {
		out = append(out, breakdown{"Claims by status", counts(s.ClaimsByStatus)},
			breakdown{"Claims by damage type", counts(s.ClaimsByDamage)})
	}
	if s.Includes(analytics.SectionAssessments) {
		out = append(out, breakdown{"Risk distribution", counts(s.RiskDistribution)})
	}
	if s.Includes(analytics.SectionPolicies) {
		out = append(out, breakdown{"Coverage by crop", s.CoverageByCrop})
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderXLSX(r *models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet, breakdownSheet = "Summary", "Breakdown"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for i, rw := range overview(r) {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]interface{}{rw.label, rw.value}); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(breakdownSheet); err != nil {
		return nil, err
	}
	line := 1
	for _, b := range breakdowns(r.Data) {
		if err := f.SetCellValue(breakdownSheet, fmt.Sprintf("A%d", line), b.title); err != nil {
			return nil, err
		}
		line++
		for _, k := range sortedKeys(b.values) {
			if err := f.SetSheetRow(breakdownSheet, fmt.Sprintf("A%d", line), &[]interface{}{k, b.values[k]}); err != nil {
				return nil, err
			}
			line++
		}
		line++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(r *models.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := r.Title
	if title == "" {
		title = "STARHAWK report"
	}
	pdf.SetTitle(tr(title), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(150, 10, tr(title), "", 1, "L", false, 0, "")

	// QR of the report id so printed copies can be looked up.
	qrPng, err := qrcode.Encode(r.ReportID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("report-qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("report-qr", 170, 10, 28, 28, false, imgOptions, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	for _, rw := range overview(r) {
		pdf.CellFormat(60, 8, tr(rw.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 8, tr(fmt.Sprint(rw.value)), "1", 1, "L", false, 0, "")
	}

	for _, b := range breakdowns(r.Data) {
		if len(b.values) == 0 {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(150, 8, tr(b.title), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		for _, k := range sortedKeys(b.values) {
			pdf.CellFormat(60, 7, tr(k), "1", 0, "L", false, 0, "")
			pdf.CellFormat(90, 7, tr(fmt.Sprint(b.values[k])), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
