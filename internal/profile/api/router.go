package api

import (
	"github.com/gin-gonic/gin"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/profile/service"
)

// SetupRoutes configures the profile API routes
func SetupRoutes(router *gin.RouterGroup, svc *service.Service, log *logger.Logger) {
	handler := NewHandler(svc, log)

	profiles := router.Group("/profiles")
	{
		profiles.POST("", handler.CreateProfile)
		profiles.GET("", handler.ListProfiles)
		profiles.GET("/:profileId", handler.GetProfile)
		profiles.PUT("/:profileId", handler.UpdateProfile)
		profiles.DELETE("/:profileId", handler.DeleteProfile)
	}
}
