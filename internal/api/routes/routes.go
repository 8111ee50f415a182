// server/internal/api/routes/routes.go
package routes

import (
	"net/http"
	"time"

	"starhawk-api-server/config"
	"starhawk-api-server/internal/api/handlers"
	"starhawk-api-server/internal/api/middleware"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/api/validation"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"
	"starhawk-api-server/internal/notification"
	"starhawk-api-server/internal/s3"
	"starhawk-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Config        config.Config
	Store         *database.Store
	Tokens        *auth.TokenManager
	Sessions      *auth.SessionService
	Events        events.Publisher
	Notifications *notification.Service
	Hub           *socket.Hub
	// Uploader may be nil; evidence uploads then answer 503.
	Uploader  *s3.Uploader
	Satellite handlers.SatelliteProxy
	Log       *zap.Logger
}

// SetupRouter builds the engine with every /api route.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})

	base := &handlers.Base{
		Store:  deps.Store,
		Events: deps.Events,
		Log:    deps.Log,
		Dev:    deps.Config.IsDevelopment(),
	}
	authHandler := &handlers.AuthHandler{
		Base:     base,
		Issuer:   auth.Issuer{Tokens: deps.Tokens, Sessions: deps.Sessions},
		Sessions: deps.Sessions,
	}
	farmerHandler := &handlers.FarmerHandler{Base: base, Uploader: deps.Uploader}
	insurerHandler := &handlers.InsurerHandler{Base: base}
	assessorHandler := &handlers.AssessorHandler{Base: base}
	governmentHandler := &handlers.GovernmentHandler{Base: base}
	adminHandler := &handlers.AdminHandler{Base: base, Sessions: deps.Sessions}
	if deps.Hub != nil {
		adminHandler.Live = deps.Hub
	}
	satelliteHandler := &handlers.SatelliteHandler{Proxy: deps.Satellite, Log: deps.Log}
	notificationHandler := &handlers.NotificationHandler{Service: deps.Notifications, Log: deps.Log}
	webSocketHandler := &handlers.WebSocketHandler{
		Hub:      deps.Hub,
		Tokens:   deps.Tokens,
		Sessions: deps.Sessions,
		Log:      deps.Log,
	}

	authenticate := middleware.Authenticate(deps.Tokens, deps.Sessions)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
		})
		api.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", authenticate, authHandler.Me)
			authRoutes.POST("/refresh", authenticate, authHandler.Refresh)
			authRoutes.POST("/logout", authenticate, authHandler.Logout)
		}

		farmer := api.Group("/farmer")
		farmer.Use(authenticate, middleware.Authorize(models.RoleFarmer))
		{
			farmer.GET("/dashboard", farmerHandler.Dashboard)
			farmer.GET("/policies", farmerHandler.GetPolicies)
			farmer.GET("/claims", farmerHandler.GetClaims)
			farmer.GET("/claims/:id", farmerHandler.GetClaim)
			farmer.POST("/claims", farmerHandler.CreateClaim)
			farmer.POST("/claims/:id/evidence", farmerHandler.UploadEvidence)
			farmer.GET("/fields", farmerHandler.GetFields)
			farmer.POST("/fields", farmerHandler.CreateField)
			farmer.GET("/assessments", farmerHandler.GetAssessments)
		}

		insurer := api.Group("/insurer")
		insurer.Use(authenticate, middleware.Authorize(models.RoleInsurer))
		{
			insurer.GET("/dashboard", insurerHandler.Dashboard)
			insurer.GET("/policies", insurerHandler.GetPolicies)
			insurer.POST("/policies", insurerHandler.CreatePolicy)
			insurer.PUT("/policies/:id", insurerHandler.UpdatePolicy)
			insurer.GET("/claims", insurerHandler.GetClaims)
			insurer.GET("/claims/:id", insurerHandler.GetClaim)
			insurer.PUT("/claims/:id", insurerHandler.UpdateClaim)
			insurer.GET("/assessments", insurerHandler.GetAssessments)
		}

		assessor := api.Group("/assessor")
		assessor.Use(authenticate, middleware.Authorize(models.RoleAssessor))
		{
			assessor.GET("/dashboard", assessorHandler.Dashboard)
			assessor.GET("/assessments", assessorHandler.GetAssessments)
			assessor.POST("/assessments", assessorHandler.CreateAssessment)
			assessor.PUT("/assessments/:id", assessorHandler.UpdateAssessment)
			assessor.GET("/fields", assessorHandler.GetFields)
			assessor.POST("/risk-score", assessorHandler.RiskScore)
		}

		government := api.Group("/government")
		government.Use(authenticate, middleware.Authorize(models.RoleGovernment))
		{
			government.GET("/dashboard", governmentHandler.Dashboard)
			government.GET("/reports", governmentHandler.GetReports)
			government.POST("/reports", governmentHandler.CreateReport)
			government.GET("/reports/:id", governmentHandler.GetReport)
			government.GET("/reports/:id/export", governmentHandler.ExportReport)
		}

		admin := api.Group("/admin")
		admin.Use(authenticate, middleware.Authorize(models.RoleAdmin))
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.GetUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.GET("/claims", adminHandler.GetClaims)
			admin.PUT("/claims/:id", adminHandler.UpdateClaim)
		}

		// Any signed-in role.
		sat := api.Group("/satellite")
		sat.Use(authenticate)
		{
			sat.POST("/search", satelliteHandler.Search)
			sat.POST("/statistics", satelliteHandler.Statistics)
			sat.GET("/weather", satelliteHandler.Weather)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authenticate)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return router, nil
}

// corsConfig opens CORS to any origin when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
