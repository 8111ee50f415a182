// server/internal/api/handlers/government_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"starhawk-api-server/internal/analytics"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/models"
	"starhawk-api-server/internal/reports"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type GovernmentHandler struct {
	*Base
}

func (h *GovernmentHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := analytics.Summarize(ctx, h.Store)
	if err != nil {
		h.internalError(c, err, "summarize platform")
		return
	}
	recent, err := h.Store.Reports.Find(ctx, nil, database.Newest(dashboardRecent))
	if err != nil {
		h.internalError(c, err, "list recent reports")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"summary":       summary,
		"recentReports": nonNil(recent),
	})
}

func (h *GovernmentHandler) GetReports(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	list, err := h.Store.Reports.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list reports")
		return
	}
	response.Success(c, http.StatusOK, nonNil(list))
}

// CreateReport records the request; the report worker fills in the data later.
func (h *GovernmentHandler) CreateReport(c *gin.Context) {
	var req models.CreateReportRequest
	if !bind(c, &req) {
		return
	}
	req.Period = strings.TrimSpace(req.Period)
	if _, err := analytics.ParsePeriod(req.ReportType, req.Period); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s %s report (%s)", req.ReportType, req.Type, req.Period)
	}

	report := models.Report{
		ID:          primitive.NewObjectID(),
		ReportID:    models.NewReference("RPT"),
		Title:       title,
		Type:        req.Type,
		ReportType:  req.ReportType,
		Period:      req.Period,
		Status:      models.ReportGenerating,
		RequestedBy: currentUserID(c),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.Reports.Insert(c.Request.Context(), &report); err != nil {
		h.internalError(c, err, "create report")
		return
	}
	h.Log.Info("report requested", zap.String("reportId", report.ReportID), zap.String("type", report.Type))
	response.SuccessMessage(c, http.StatusAccepted, "Report generation started", report)
}

func (h *GovernmentHandler) GetReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ExportReport streams a completed report as xlsx (default) or pdf.
func (h *GovernmentHandler) ExportReport(c *gin.Context) {
	report, ok := h.loadReport(c)
	if !ok {
		return
	}

	file, err := reports.Export(report, c.DefaultQuery("format", reports.FormatXLSX))
	switch {
	case errors.Is(err, reports.ErrUnsupportedFormat):
		response.Error(c, http.StatusBadRequest,
			fmt.Sprintf("format must be one of [%s, %s]", reports.FormatXLSX, reports.FormatPDF))
		return
	case errors.Is(err, reports.ErrNotReady):
		response.Error(c, http.StatusConflict, "Report is not ready yet")
		return
	case err != nil:
		h.internalError(c, err, "export report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (h *GovernmentHandler) loadReport(c *gin.Context) (*models.Report, bool) {
	id, ok := objectID(c, "report")
	if !ok {
		return nil, false
	}
	report, err := h.Store.Reports.FindOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Report not found")
			return nil, false
		}
		h.internalError(c, err, "load report")
		return nil, false
	}
	return report, true
}
