package lifecycle

import "errors"

var (
	// ErrProcessSpawn is reported when the game process could not be started.
	ErrProcessSpawn = errors.New("failed to spawn game process")
	// ErrAbortTimeout is reported when an aborted launch did not stop in time.
	ErrAbortTimeout = errors.New("launch did not stop within the abort timeout")
	// ErrManagerStopped is returned by LaunchProfile after Stop.
	ErrManagerStopped = errors.New("launch manager is stopped")
)
