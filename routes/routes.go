package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-claims-api/controllers"
	"relief-claims-api/middleware"
	"relief-claims-api/models"
	"relief-claims-api/repository"
)

// Dependencies are the handlers and auth collaborators the routes need.
type Dependencies struct {
	Auth      *controllers.AuthController
	Claims    *controllers.ClaimController
	Documents *controllers.DocumentController
	JWTSecret string
	Officers  repository.OfficerRepository
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", deps.Auth.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"status":  "ok",
					"message": "Relief Claims API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Officers))
		{
			// Officer profile
			protected.GET("/profile", deps.Auth.GetProfile)
			protected.PUT("/profile", deps.Auth.UpdateProfile)

			claims := protected.Group("/claims")
			{
				claims.GET("", deps.Claims.ListClaims)
				claims.GET("/:id", deps.Claims.GetClaim)

				// Only the originating role creates and submits claims
				claims.POST("", middleware.RequireRole(models.RoleTehsildar), deps.Claims.CreateClaim)
				claims.POST("/:id/submit", middleware.RequireRole(models.RoleTehsildar), deps.Claims.SubmitClaim)

				claims.POST("/:id/review", deps.Claims.StartReview)
				claims.POST("/:id/actions", deps.Claims.SubmitAction)
				claims.GET("/:id/approvals", deps.Claims.ListApprovals)
				claims.GET("/:id/history", deps.Claims.ListHistory)

				// Documents
				claims.GET("/:id/documents", deps.Documents.ListDocuments)
				claims.POST("/:id/documents", deps.Documents.UploadDocument)
				claims.GET("/:id/documents/:document_id/download", deps.Documents.DownloadDocument)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "code": "not_found"})
	})
}
