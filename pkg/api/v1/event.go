package v1

// EventType identifies the phase an EventPayload reports on.
// The set is additive; values this build does not know decode to EventTypeUnknown.
type EventType string

const (
	EventTypeInstallingJava         EventType = "installing_java"
	EventTypeDownloadingLibraries   EventType = "downloading_libraries"
	EventTypeExtractingNatives      EventType = "extracting_natives"
	EventTypeDownloadingAssets      EventType = "downloading_assets"
	EventTypeDownloadingClient      EventType = "downloading_client"
	EventTypeInstallingFabric       EventType = "installing_fabric"
	EventTypeInstallingQuilt        EventType = "installing_quilt"
	EventTypeInstallingForge        EventType = "installing_forge"
	EventTypeInstallingNeoForge     EventType = "installing_neoforge"
	EventTypeDownloadingMods        EventType = "downloading_mods"
	EventTypeSyncingMods            EventType = "syncing_mods"
	EventTypeLaunchingMinecraft     EventType = "launching_minecraft"
	EventTypeMinecraftOutput        EventType = "minecraft_output"
	EventTypeAccountLogin           EventType = "account_login"
	EventTypeAccountRefresh         EventType = "account_refresh"
	EventTypeAccountLogout          EventType = "account_logout"
	EventTypeProfileUpdate          EventType = "profile_update"
	EventTypeMinecraftProcessExited EventType = "minecraft_process_exited"
	EventTypeLaunchCancelled        EventType = "launch_cancelled"
	EventTypeError                  EventType = "error"

	EventTypeUnknown EventType = "unknown"
)

var knownEventTypes = map[EventType]struct{}{
	EventTypeInstallingJava:         {},
	EventTypeDownloadingLibraries:   {},
	EventTypeExtractingNatives:      {},
	EventTypeDownloadingAssets:      {},
	EventTypeDownloadingClient:      {},
	EventTypeInstallingFabric:       {},
	EventTypeInstallingQuilt:        {},
	EventTypeInstallingForge:        {},
	EventTypeInstallingNeoForge:     {},
	EventTypeDownloadingMods:        {},
	EventTypeSyncingMods:            {},
	EventTypeLaunchingMinecraft:     {},
	EventTypeMinecraftOutput:        {},
	EventTypeAccountLogin:           {},
	EventTypeAccountRefresh:         {},
	EventTypeAccountLogout:          {},
	EventTypeProfileUpdate:          {},
	EventTypeMinecraftProcessExited: {},
	EventTypeLaunchCancelled:        {},
	EventTypeError:                  {},
}

// IsKnown returns true if t is part of the enumeration.
func (t EventType) IsKnown() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// EndsLaunch reports whether an event of type t is the last one of a launch.
func (t EventType) EndsLaunch() bool {
	return t == EventTypeMinecraftProcessExited || t == EventTypeError
}

// UnmarshalText maps unrecognised event types to EventTypeUnknown.
func (t *EventType) UnmarshalText(text []byte) error {
	v := EventType(text)
	if !v.IsKnown() {
		v = EventTypeUnknown
	}
	*t = v
	return nil
}

// EventPayload is a single progress/status notification on the state_event channel.
// Progress is a percentage in [0, 100]. A non-nil Error marks the event as the
// failure terminal of whatever phase it reports.
type EventPayload struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	TargetID  *string   `json:"target_id,omitempty"`
	Message   string    `json:"message"`
	Progress  *float64  `json:"progress,omitempty"`
	Error     *string   `json:"error,omitempty"`
}

// IsFailure reports whether the payload carries an error.
func (p EventPayload) IsFailure() bool {
	return p.Error != nil
}

// Target returns the target id or "" for global events.
func (p EventPayload) Target() string {
	if p.TargetID == nil {
		return ""
	}
	return *p.TargetID
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}
