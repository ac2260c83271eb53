package api

import "github.com/gin-gonic/gin"

// SetupRoutes registers the public API endpoints.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/enforcement", handler.EnforcementHandler)
		apiGroup.POST("/generate-image", handler.GenerateImageHandler)
		apiGroup.POST("/generate-prompt", handler.GeneratePromptHandler)
		apiGroup.GET("/usage", handler.UsageHandler)
	}
}
