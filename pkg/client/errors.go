package client

import (
	"errors"

	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

var (
	// ErrAlreadyLaunching is returned when the profile already has a launch in flight.
	ErrAlreadyLaunching = errors.New("profile is already launching")
	// ErrNotLaunching is returned when aborting a profile with no launch in flight.
	ErrNotLaunching = errors.New("profile is not launching")
	// ErrNotFound is returned for unknown profiles.
	ErrNotFound = errors.New("profile not found")
	// ErrClosed is returned by commands on a closed session.
	ErrClosed = errors.New("session closed")
)

// CommandError is an error reply from the server.
type CommandError struct {
	Action  string
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return e.Action + ": " + e.Code + ": " + e.Message
}

// Is matches the package sentinels by error code.
func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrAlreadyLaunching:
		return e.Code == ws.ErrorCodeAlreadyLaunching
	case ErrNotLaunching:
		return e.Code == ws.ErrorCodeNotLaunching
	case ErrNotFound:
		return e.Code == ws.ErrorCodeNotFound
	}
	return false
}
