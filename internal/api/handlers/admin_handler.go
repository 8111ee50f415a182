// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"starhawk-api-server/internal/analytics"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LiveConnections drops a user's open websocket connections.
type LiveConnections interface {
	Disconnect(userID string) int
}

type AdminHandler struct {
	*Base
	Sessions *auth.SessionService
	Live     LiveConnections
}

type UserStats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	ByRole   map[string]int64 `json:"byRole"`
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	var (
		users   []models.User
		summary *models.Summary
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		users, err = h.Store.Users.Find(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		summary, err = analytics.Summarize(ctx, h.Store)
		return err
	})
	if err := g.Wait(); err != nil {
		h.internalError(c, err, "load admin dashboard")
		return
	}

	stats := UserStats{Total: int64(len(users)), ByRole: map[string]int64{}}
	for _, role := range models.Roles {
		stats.ByRole[role] = 0
	}
	for _, u := range users {
		stats.ByRole[u.Role]++
		if u.IsActive {
			stats.Active++
		}
	}
	stats.Inactive = stats.Total - stats.Active

	response.Success(c, http.StatusOK, gin.H{
		"users":   stats,
		"summary": summary,
	})
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := bson.M{}
	if role := c.Query("role"); role != "" {
		if !models.IsRole(role) {
			response.Error(c, http.StatusBadRequest, "Invalid role")
			return
		}
		filter["role"] = role
	}
	if raw := c.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "isActive must be true or false")
			return
		}
		filter["isActive"] = active
	}
	users, err := h.Store.Users.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		h.internalError(c, err, "list users")
		return
	}
	response.Success(c, http.StatusOK, nonNil(users))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := objectID(c, "user")
	if !ok {
		return
	}
	user, err := h.Store.Users.FindOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(c, err, "load user")
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UpdateUser applies the submitted fields. Deactivating a user or changing
// their role ends every session they hold, so issued tokens stop working.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := objectID(c, "user")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !bind(c, &req) {
		return
	}
	set := req.ToSet(time.Now().UTC())
	if set == nil {
		response.Error(c, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx := c.Request.Context()
	matched, err := h.Store.Users.UpdateOne(ctx, bson.M{"_id": id}, set)
	if err != nil {
		h.internalError(c, err, "update user")
		return
	}
	if matched == 0 {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}

	if (req.IsActive != nil && !*req.IsActive) || req.Role != nil {
		revoked, err := h.Sessions.RevokeAllForUser(ctx, id.Hex())
		if err != nil {
			h.internalError(c, err, "revoke user sessions")
			return
		}
		closed := 0
		if h.Live != nil {
			closed = h.Live.Disconnect(id.Hex())
		}
		h.Log.Info("user sessions revoked", zap.String("userId", id.Hex()),
			zap.Int64("sessions", revoked), zap.Int("connections", closed))
	}

	user, err := h.Store.Users.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		h.internalError(c, err, "reload user")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "User updated successfully", user)
}

func (h *AdminHandler) GetClaims(c *gin.Context) { h.listClaims(c) }
func (h *AdminHandler) UpdateClaim(c *gin.Context) { h.updateClaim(c) }
