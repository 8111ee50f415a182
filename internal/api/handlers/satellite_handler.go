package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/satellite"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SatelliteProxy is implemented by *satellite.Client.
type SatelliteProxy interface {
	Search(ctx context.Context, body []byte) (json.RawMessage, error)
	Statistics(ctx context.Context, body []byte) (json.RawMessage, error)
	Weather(ctx context.Context, query url.Values) (json.RawMessage, error)
}

type SatelliteHandler struct {
	Proxy SatelliteProxy
	Log   *zap.Logger
}

func (h *SatelliteHandler) Search(c *gin.Context) {
	h.forwardBody(c, h.Proxy.Search)
}

func (h *SatelliteHandler) Statistics(c *gin.Context) {
	h.forwardBody(c, h.Proxy.Statistics)
}

func (h *SatelliteHandler) Weather(c *gin.Context) {
	data, err := h.Proxy.Weather(c.Request.Context(), c.Request.URL.Query())
	h.relay(c, data, err)
}

func (h *SatelliteHandler) forwardBody(c *gin.Context, call func(context.Context, []byte) (json.RawMessage, error)) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		response.Error(c, http.StatusBadRequest, "request body is required")
		return
	}
	data, err := call(c.Request.Context(), body)
	h.relay(c, data, err)
}

// relay wraps upstream success in the envelope. Upstream failures keep their
// status and raw body.
func (h *SatelliteHandler) relay(c *gin.Context, data json.RawMessage, err error) {
	if err == nil {
		response.Success(c, http.StatusOK, data)
		return
	}

	var upstream *satellite.UpstreamError
	switch {
	case errors.Is(err, satellite.ErrNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, "Satellite service is not configured")
	case errors.As(err, &upstream):
		h.Log.Warn("upstream error", zap.String("path", c.FullPath()), zap.Int("status", upstream.Status))
		response.ErrorDetail(c, upstream.Status,
			fmt.Sprintf("Satellite service returned status %d", upstream.Status), string(upstream.Body))
	default:
		h.Log.Error("upstream request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusBadGateway, "Upstream service unavailable")
	}
}
