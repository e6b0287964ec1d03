package websocket

// Actions
const (
	ActionHealthCheck = "health.check"

	// Launch commands (client -> server)
	ActionLaunchProfile      = "launch_profile"
	ActionAbortProfileLaunch = "abort_profile_launch"
	ActionIsProfileLaunching = "is_profile_launching"
	ActionListLaunches       = "list_launches"

	// Notifications (server -> client)
	ActionStateEvent = "state_event"
)

// Error codes
const (
	ErrorCodeBadRequest       = "BAD_REQUEST"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeInternalError    = "INTERNAL_ERROR"
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeUnknownAction    = "UNKNOWN_ACTION"
	ErrorCodeAlreadyLaunching = "ALREADY_LAUNCHING"
	ErrorCodeNotLaunching     = "NOT_LAUNCHING"
)

// ProfileRequest is the payload of the launch commands.
type ProfileRequest struct {
	ProfileID string `json:"profile_id"`
}
