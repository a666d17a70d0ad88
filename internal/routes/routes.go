package routes

import (
	"github.com/eventguard/backend/internal/controllers"
	"github.com/eventguard/backend/internal/middleware"
	"github.com/eventguard/backend/internal/services"
	"github.com/eventguard/backend/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	SetupRoutesWithStore(r, store.NewGormStore(db))
}

// SetupRoutesWithStore wires controllers against any Store
// implementation; tests pass a MemoryStore here.
func SetupRoutesWithStore(r *gin.Engine, st store.Store) {
	// Initialize services
	permissionService := services.NewPermissionService(st)
	revisionService := services.NewRevisionService(st)
	logService := services.NewLogService(st, permissionService, revisionService)

	// Initialize controllers
	authController := controllers.NewAuthController(st)
	userController := controllers.NewUserController(st)
	logController := controllers.NewLogController(logService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/auth/refresh", authController.RefreshToken)

			// Users
			users := protected.Group("/users")
			{
				users.GET("/me", userController.GetCurrentUser)
				users.GET("", middleware.RequireRoles("ADMIN", "MANAGER"), userController.GetUsers)
			}

			// Incident logs. There is deliberately no PUT or DELETE on a
			// log: content only changes through the revision ledger.
			logs := protected.Group("/logs")
			{
				logs.POST("", logController.CreateLog)
				logs.GET("", logController.GetLogs)
				logs.GET("/:id", logController.GetLog)
				logs.GET("/:id/permissions", logController.GetPermissions)
				logs.POST("/:id/revisions", logController.AmendLog)
				logs.GET("/:id/revisions", logController.GetHistory)
				logs.GET("/:id/export", logController.ExportHistory)
			}
		}
	}
}
