package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/errors"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/profile/repository"
	"github.com/noriskclient/launcherd/internal/profile/service"
)

// Handler contains HTTP handlers for the profile API
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

func (h *Handler) respondError(c *gin.Context, err error, profileID, action string) {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		appErr = errors.NotFound("profile", profileID)
	case stderrors.Is(err, service.ErrInvalidProfile):
		appErr = errors.ValidationError("profile", err.Error())
	default:
		h.logger.Error("failed to "+action, zap.String("profile_id", profileID), zap.Error(err))
		appErr = errors.InternalError("failed to "+action, err)
	}
	c.JSON(appErr.HTTPStatus, appErr)
}

// CreateProfile creates a new profile
// POST /api/v1/profiles
func (h *Handler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	profile, err := h.service.Create(c.Request.Context(), &service.CreateRequest{
		Name:          req.Name,
		GameVersion:   req.GameVersion,
		Loader:        req.Loader,
		LoaderVersion: req.LoaderVersion,
		GameDir:       req.GameDir,
		JavaPath:      req.JavaPath,
		MainClass:     req.MainClass,
		JVMArgs:       req.JVMArgs,
		GameArgs:      req.GameArgs,
		Env:           req.Env,
	})
	if err != nil {
		h.respondError(c, err, "", "create profile")
		return
	}

	c.JSON(http.StatusCreated, profileToResponse(profile))
}

// GetProfile retrieves a profile by ID
// GET /api/v1/profiles/:profileId
func (h *Handler) GetProfile(c *gin.Context) {
	profileID := c.Param("profileId")

	profile, err := h.service.Get(c.Request.Context(), profileID)
	if err != nil {
		h.respondError(c, err, profileID, "get profile")
		return
	}

	c.JSON(http.StatusOK, profileToResponse(profile))
}

// UpdateProfile updates an existing profile
// PUT /api/v1/profiles/:profileId
func (h *Handler) UpdateProfile(c *gin.Context) {
	profileID := c.Param("profileId")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	profile, err := h.service.Update(c.Request.Context(), profileID, &service.UpdateRequest{
		Name:          req.Name,
		GameVersion:   req.GameVersion,
		Loader:        req.Loader,
		LoaderVersion: req.LoaderVersion,
		GameDir:       req.GameDir,
		JavaPath:      req.JavaPath,
		MainClass:     req.MainClass,
		JVMArgs:       req.JVMArgs,
		GameArgs:      req.GameArgs,
		Env:           req.Env,
	})
	if err != nil {
		h.respondError(c, err, profileID, "update profile")
		return
	}

	c.JSON(http.StatusOK, profileToResponse(profile))
}

// DeleteProfile deletes a profile
// DELETE /api/v1/profiles/:profileId
func (h *Handler) DeleteProfile(c *gin.Context) {
	profileID := c.Param("profileId")

	if err := h.service.Delete(c.Request.Context(), profileID); err != nil {
		h.respondError(c, err, profileID, "delete profile")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProfiles returns all profiles
// GET /api/v1/profiles
func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "", "list profiles")
		return
	}

	resp := ProfilesListResponse{
		Profiles: make([]ProfileResponse, 0, len(profiles)),
		Total:    len(profiles),
	}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, profileToResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}
