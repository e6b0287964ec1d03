package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/errors"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/launch/lifecycle"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

// Launcher is the launch surface served over the socket.
type Launcher interface {
	LaunchProfile(ctx context.Context, profileID string) (v1.ProcessMetadata, error)
	AbortProfileLaunch(ctx context.Context, profileID string) error
	IsProfileLaunching(profileID string) (v1.ProcessMetadata, bool)
	ListLaunches() []v1.ProcessMetadata
}

type launchHandlers struct {
	launcher Launcher
	logger   *logger.Logger
}

// RegisterLaunchHandlers registers the launch command actions on d.
func RegisterLaunchHandlers(d *ws.Dispatcher, launcher Launcher, log *logger.Logger) {
	h := &launchHandlers{
		launcher: launcher,
		logger:   log.WithFields(zap.String("component", "ws_launch")),
	}
	d.RegisterFunc(ws.ActionLaunchProfile, h.launchProfile)
	d.RegisterFunc(ws.ActionAbortProfileLaunch, h.abortProfileLaunch)
	d.RegisterFunc(ws.ActionIsProfileLaunching, h.isProfileLaunching)
	d.RegisterFunc(ws.ActionListLaunches, h.listLaunches)
}

// parseProfile returns the requested profile id, or an error reply to send instead.
func parseProfile(msg *ws.Message) (string, *ws.Message, error) {
	var req ws.ProfileRequest
	if err := msg.ParsePayload(&req); err != nil {
		reply, mErr := ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		return "", reply, mErr
	}
	if req.ProfileID == "" {
		reply, mErr := ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "profile_id is required", nil)
		return "", reply, mErr
	}
	return req.ProfileID, nil, nil
}

func (h *launchHandlers) errorReply(msg *ws.Message, err error, profileID string) (*ws.Message, error) {
	appErr := lifecycle.ToAppError(err, profileID)
	if appErr.Code == errors.ErrCodeInternalError {
		h.logger.Error("launch command failed",
			zap.String("action", msg.Action),
			zap.String("profile_id", profileID),
			zap.Error(err))
	}
	return ws.NewError(msg.ID, msg.Action, appErr.Code, appErr.Message, map[string]interface{}{
		"profile_id": profileID,
	})
}

func (h *launchHandlers) launchProfile(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	profileID, reply, err := parseProfile(msg)
	if reply != nil || err != nil {
		return reply, err
	}

	meta, err := h.launcher.LaunchProfile(ctx, profileID)
	if err != nil {
		return h.errorReply(msg, err, profileID)
	}
	return ws.NewResponse(msg.ID, msg.Action, meta)
}

func (h *launchHandlers) abortProfileLaunch(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	profileID, reply, err := parseProfile(msg)
	if reply != nil || err != nil {
		return reply, err
	}

	if err := h.launcher.AbortProfileLaunch(ctx, profileID); err != nil {
		return h.errorReply(msg, err, profileID)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"aborted":    true,
		"profile_id": profileID,
	})
}

func (h *launchHandlers) isProfileLaunching(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	profileID, reply, err := parseProfile(msg)
	if reply != nil || err != nil {
		return reply, err
	}

	meta, ok := h.launcher.IsProfileLaunching(profileID)
	status := v1.LaunchStatus{Launching: ok}
	if ok {
		status.Process = &meta
	}
	return ws.NewResponse(msg.ID, msg.Action, status)
}

func (h *launchHandlers) listLaunches(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	launches := h.launcher.ListLaunches()
	if launches == nil {
		launches = []v1.ProcessMetadata{}
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"launches": launches,
		"total":    len(launches),
	})
}
