package admin

import (
	"intellect/internal/auth"
	"intellect/internal/config"
	"intellect/internal/db"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the admin endpoints behind basic auth.
func SetupRoutes(router *gin.Engine, dbService db.Service, cfg *config.Config) {
	handler := NewHandler(dbService)

	adminGroup := router.Group("/admin")
	adminGroup.Use(auth.AdminAuthMiddleware(cfg.Admin.Password))
	{
		advocatesGroup := adminGroup.Group("/advocates")
		{
			advocatesGroup.GET("", handler.ListAdvocatesHandler)
			advocatesGroup.POST("", handler.CreateAdvocateHandler)
			advocatesGroup.GET("/:id", handler.GetAdvocateHandler)
			advocatesGroup.PUT("/:id", handler.UpdateAdvocateHandler)
			advocatesGroup.DELETE("/:id", handler.DeleteAdvocateHandler)
		}

		adminGroup.GET("/usage", handler.ListUsageHandler)
	}
}
