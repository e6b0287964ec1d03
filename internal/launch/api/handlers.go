// Package api exposes the launch commands over REST.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/launch/lifecycle"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Launcher is the launch surface the handlers need.
type Launcher interface {
	LaunchProfile(ctx context.Context, profileID string) (v1.ProcessMetadata, error)
	AbortProfileLaunch(ctx context.Context, profileID string) error
	IsProfileLaunching(profileID string) (v1.ProcessMetadata, bool)
	ListLaunches() []v1.ProcessMetadata
}

// LaunchesListResponse lists in-flight launches.
type LaunchesListResponse struct {
	Launches []v1.ProcessMetadata `json:"launches"`
	Total    int                  `json:"total"`
}

type Handler struct {
	launcher Launcher
	logger   *logger.Logger
}

func NewHandler(launcher Launcher, log *logger.Logger) *Handler {
	return &Handler{launcher: launcher, logger: log}
}

func (h *Handler) respondError(c *gin.Context, err error, profileID string) {
	appErr := lifecycle.ToAppError(err, profileID)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("launch request failed", zap.String("profile_id", profileID), zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus, appErr)
}

// LaunchProfile starts a launch.
// POST /api/v1/profiles/:profileId/launch
func (h *Handler) LaunchProfile(c *gin.Context) {
	profileID := c.Param("profileId")

	meta, err := h.launcher.LaunchProfile(c.Request.Context(), profileID)
	if err != nil {
		h.respondError(c, err, profileID)
		return
	}
	c.JSON(http.StatusAccepted, meta)
}

// AbortProfileLaunch requests cancellation of a launch.
// POST /api/v1/profiles/:profileId/abort
func (h *Handler) AbortProfileLaunch(c *gin.Context) {
	profileID := c.Param("profileId")

	if err := h.launcher.AbortProfileLaunch(c.Request.Context(), profileID); err != nil {
		h.respondError(c, err, profileID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aborted": true, "profile_id": profileID})
}

// IsProfileLaunching reports whether a launch is in flight.
// GET /api/v1/profiles/:profileId/launching
func (h *Handler) IsProfileLaunching(c *gin.Context) {
	meta, ok := h.launcher.IsProfileLaunching(c.Param("profileId"))
	resp := v1.LaunchStatus{Launching: ok}
	if ok {
		resp.Process = &meta
	}
	c.JSON(http.StatusOK, resp)
}

// ListLaunches lists every in-flight launch.
// GET /api/v1/launches
func (h *Handler) ListLaunches(c *gin.Context) {
	launches := h.launcher.ListLaunches()
	if launches == nil {
		launches = []v1.ProcessMetadata{}
	}
	c.JSON(http.StatusOK, LaunchesListResponse{Launches: launches, Total: len(launches)})
}
