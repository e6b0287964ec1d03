// Package events carries launcher state notifications over the event bus.
package events

// StateEventSubject is the single subject every EventPayload is published on.
const StateEventSubject = "state_event"

// Sources identify the component that emitted an event.
const (
	SourceLifecycle = "launch-lifecycle"
	SourceProfiles  = "profile-service"
	SourceReaper    = "launch-reaper"
)
