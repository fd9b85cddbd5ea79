// routes/routes.go
package routes

import (
	"net/http"

	"pandora-box-api/controllers"
	"pandora-box-api/middleware"
	"pandora-box-api/models"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every API endpoint.
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")

	// Public routes
	{
		api.POST("/login", controllers.Login)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "pandora-box-api"})
		})
	}

	// Authenticated routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/logout", controllers.Logout)
		protected.GET("/profile", controllers.GetProfile)
		protected.POST("/change-password", controllers.ChangePassword)

		protected.GET("/dashboard", controllers.GetDashboardStats)

		protected.GET("/submissions", controllers.GetSubmissions)
		protected.POST("/submissions", controllers.CreateSubmission)
		protected.GET("/submissions/export", controllers.ExportSubmissions)
		protected.GET("/submissions/:id", controllers.GetSubmission)
		protected.PUT("/submissions/:id", controllers.UpdateSubmission)
		protected.DELETE("/submissions/:id", controllers.DeleteSubmission)

		protected.GET("/library", controllers.ContentLibrary)

		protected.GET("/macs", controllers.GetMACs)

		protected.GET("/notifications", controllers.GetNotifications)
		protected.GET("/notifications/counter", controllers.GetNotificationCounter)
		protected.PUT("/notifications/:id/read", controllers.MarkNotificationRead)
		protected.PUT("/notifications/read-all", controllers.MarkAllNotificationsRead)

		protected.GET("/activity-logs", controllers.GetActivityLogs)
	}

	// Reviewer routes
	reviewer := protected.Group("")
	reviewer.Use(middleware.RequireRole(models.RoleMICATReviewer, models.RoleAdmin))
	{
		reviewer.POST("/submissions/:id/review", controllers.ReviewSubmission)
		reviewer.POST("/submissions/:id/comments", controllers.AddComment)
	}

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", controllers.GetUsers)
		admin.POST("/users", controllers.CreateUser)
		admin.PUT("/users/:id", controllers.UpdateUser)
		admin.DELETE("/users/:id", controllers.DeleteUser)

		admin.POST("/macs", controllers.CreateMAC)
		admin.PUT("/macs/:id", controllers.UpdateMAC)
		admin.DELETE("/macs/:id", controllers.DeleteMAC)
	}
}
