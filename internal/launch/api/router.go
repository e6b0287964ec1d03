package api

import (
	"github.com/gin-gonic/gin"

	"github.com/noriskclient/launcherd/internal/common/logger"
)

// SetupRoutes configures the launch routes. launchMiddleware runs in front
// of the launch command only.
func SetupRoutes(router *gin.RouterGroup, launcher Launcher, log *logger.Logger, launchMiddleware ...gin.HandlerFunc) {
	handler := NewHandler(launcher, log)

	launch := append(append([]gin.HandlerFunc{}, launchMiddleware...), handler.LaunchProfile)

	profiles := router.Group("/profiles/:profileId")
	{
		profiles.POST("/launch", launch...)
		profiles.POST("/abort", handler.AbortProfileLaunch)
		profiles.GET("/launching", handler.IsProfileLaunching)
	}
	router.GET("/launches", handler.ListLaunches)
}
