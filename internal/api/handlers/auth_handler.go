// server/internal/api/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"starhawk-api-server/internal/api/middleware"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AuthHandler struct {
	*Base
	Issuer   auth.Issuer
	Sessions *auth.SessionService
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bind(c, &req) {
		return
	}
	if req.Role == models.RoleAdmin {
		response.Error(c, http.StatusForbidden, "Admin accounts cannot be self-registered")
		return
	}

	ctx := c.Request.Context()
	email := models.NormalizeEmail(req.Email)

	count, err := h.Store.Users.Count(ctx, bson.M{"email": email})
	if err != nil {
		h.internalError(c, err, "check existing user")
		return
	}
	if count > 0 {
		response.Error(c, http.StatusConflict, "User already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, err, "hash password")
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  hash,
		Role:      req.Role,
		Name:      req.Name,
		Phone:     req.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.Users.Insert(ctx, &user); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			response.Error(c, http.StatusConflict, "User already exists")
			return
		}
		h.internalError(c, err, "create user")
		return
	}

	if err := h.createProfile(c, user, req, now); err != nil {
		// No transaction: undo the user so the email can be registered again.
		if _, derr := h.Store.Users.DeleteMany(ctx, bson.M{"_id": user.ID}); derr != nil {
			h.Log.Error("rollback user after profile failure", zap.String("userId", user.ID.Hex()), zap.Error(derr))
		}
		h.internalError(c, err, "create profile")
		return
	}

	token, expiresAt, err := h.Issuer.Issue(ctx, user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		h.internalError(c, err, "issue token")
		return
	}

	h.Log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("role", user.Role))
	response.SuccessMessage(c, http.StatusCreated, "User registered successfully",
		AuthResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// createProfile inserts the role's profile document. Government users have none.
func (h *AuthHandler) createProfile(c *gin.Context, user models.User, req models.RegisterRequest, now time.Time) error {
	ctx := c.Request.Context()
	userID := user.ID.Hex()

	switch user.Role {
	case models.RoleFarmer:
		return h.Store.Farmers.Insert(ctx, &models.FarmerProfile{
			ID:           primitive.NewObjectID(),
			UserID:       userID,
			Name:         user.Name,
			Email:        user.Email,
			Phone:        user.Phone,
			Location:     req.Location,
			FarmSize:     req.FarmSize,
			PrimaryCrops: req.PrimaryCrops,
			CreatedAt:    now,
		})
	case models.RoleInsurer:
		return h.Store.Insurers.Insert(ctx, &models.InsurerProfile{
			ID:            primitive.NewObjectID(),
			UserID:        userID,
			Name:          user.Name,
			Email:         user.Email,
			Phone:         user.Phone,
			CompanyName:   req.CompanyName,
			LicenseNumber: req.LicenseNumber,
			CreatedAt:     now,
		})
	case models.RoleAssessor:
		return h.Store.Assessors.Insert(ctx, &models.AssessorProfile{
			ID:             primitive.NewObjectID(),
			UserID:         userID,
			Name:           user.Name,
			Email:          user.Email,
			Phone:          user.Phone,
			Organization:   req.Organization,
			Specialization: req.Specialization,
			Region:         req.Region,
			CreatedAt:      now,
		})
	}
	return nil
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	filter := bson.M{"email": models.NormalizeEmail(req.Email)}
	if req.Role != "" {
		filter["role"] = req.Role
	}

	user, err := h.Store.Users.FindOne(ctx, filter)
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.internalError(c, err, "find user for login")
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.Password) {
		response.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		response.Error(c, http.StatusForbidden, "Account is deactivated")
		return
	}

	now := time.Now().UTC()
	if _, err := h.Store.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"lastLogin": now}); err != nil {
		h.Log.Warn("record last login", zap.String("userId", user.ID.Hex()), zap.Error(err))
	}
	user.LastLogin = &now

	token, expiresAt, err := h.Issuer.Issue(ctx, user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		h.internalError(c, err, "issue token")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Login successful",
		AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Refresh rotates the caller's token: a new session is issued and the old one revoked.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	if !user.IsActive {
		response.Error(c, http.StatusForbidden, "Account is deactivated")
		return
	}

	ctx := c.Request.Context()
	token, expiresAt, err := h.Issuer.Issue(ctx, user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		h.internalError(c, err, "issue token")
		return
	}
	if err := h.Sessions.Revoke(ctx, c.GetString(middleware.SessionIDKey)); err != nil {
		h.internalError(c, err, "revoke previous session")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Token refreshed",
		AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Sessions.Revoke(c.Request.Context(), c.GetString(middleware.SessionIDKey)); err != nil {
		h.internalError(c, err, "revoke session")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) loadCurrentUser(c *gin.Context) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(currentUserID(c))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}
	user, err := h.Store.Users.FindOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "User not found")
			return nil, false
		}
		h.internalError(c, err, "load current user")
		return nil, false
	}
	return user, true
}
