// server/internal/api/handlers/base.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"starhawk-api-server/internal/api/middleware"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/api/validation"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// Base carries what every role handler needs.
type Base struct {
	Store  *database.Store
	Events events.Publisher
	Log    *zap.Logger
	// Dev exposes raw error text in 500 responses.
	Dev bool
}

// internalError logs err and answers 500. The message carries err only in development.
func (b *Base) internalError(c *gin.Context, err error, msg string) {
	b.Log.Error(msg,
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("userId", c.GetString(middleware.UserIDKey)),
		zap.Error(err),
	)
	_ = c.Error(err)
	message := "Internal server error"
	if b.Dev {
		message = err.Error()
	}
	response.ErrorDetail(c, http.StatusInternalServerError, message, "Internal server error")
}

// publish is best effort: a broker outage never fails the request.
func (b *Base) publish(ctx context.Context, e events.Event) {
	if b.Events == nil || e.RecipientID == "" {
		return
	}
	if err := b.Events.Publish(ctx, e); err != nil {
		b.Log.Warn("publish event failed", zap.String("type", e.Type), zap.String("recipientId", e.RecipientID), zap.Error(err))
	}
}

// bind decodes the JSON body into req and writes a 400 on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, validation.Message(err))
		return false
	}
	return true
}

// objectID parses the :id path parameter. what names the resource in the 400 message.
func objectID(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid "+what+" id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// queryLimit reads ?limit, falling back to defaultListLimit.
func queryLimit(c *gin.Context) int64 {
	n, err := strconv.ParseInt(c.Query("limit"), 10, 64)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return n
}

func newest(c *gin.Context) database.FindOptions {
	return database.Newest(queryLimit(c))
}

// nonNil keeps empty lists serialised as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
