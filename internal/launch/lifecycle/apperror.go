package lifecycle

import (
	"errors"

	apperrors "github.com/noriskclient/launcherd/internal/common/errors"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/launch/registry"
	"github.com/noriskclient/launcherd/internal/profile/repository"
)

// ToAppError maps errors returned by the Manager to an AppError for profileID.
// AppErrors pass through; anything unrecognised is internal.
func ToAppError(err error, profileID string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("profile", profileID)
	case errors.Is(err, registry.ErrAlreadyLaunching):
		return apperrors.AlreadyLaunching(profileID, err)
	case errors.Is(err, registry.ErrNotLaunching):
		return apperrors.NotLaunching(profileID, err)
	case errors.Is(err, registry.ErrInvalidTransition):
		conflict := apperrors.Conflict("launch is not in a state that allows this operation")
		conflict.Err = err
		return conflict
	case errors.Is(err, ErrManagerStopped):
		return apperrors.ServiceUnavailable("launch manager")
	case errors.Is(err, bus.ErrBusClosed):
		return apperrors.ServiceUnavailable("event bus")
	default:
		return apperrors.InternalError("launch operation failed", err)
	}
}
