package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessState_Transitions(t *testing.T) {
	tests := []struct {
		from  ProcessState
		to    ProcessState
		legal bool
	}{
		{ProcessStateStarting, ProcessStateRunning, true},
		{ProcessStateStarting, ProcessStateStopping, true},
		{ProcessStateStarting, ProcessStateCrashed, true},
		{ProcessStateStarting, ProcessStateStopped, false},
		{ProcessStateRunning, ProcessStateStopping, true},
		{ProcessStateRunning, ProcessStateStopped, true},
		{ProcessStateRunning, ProcessStateCrashed, true},
		{ProcessStateRunning, ProcessStateStarting, false},
		{ProcessStateStopping, ProcessStateStopped, true},
		{ProcessStateStopping, ProcessStateRunning, false},
		{ProcessStateStopping, ProcessStateCrashed, false},
		{ProcessStateStopped, ProcessStateRunning, false},
		{ProcessStateCrashed, ProcessStateStarting, false},
		{ProcessStateRunning, ProcessStateRunning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.legal, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEventType_UnknownValuesDecode(t *testing.T) {
	var payload EventPayload
	err := json.Unmarshal([]byte(`{"event_id":"1","event_type":"installing_shaders","message":"x"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, EventTypeUnknown, payload.EventType)

	err = json.Unmarshal([]byte(`{"event_id":"2","event_type":"syncing_mods","message":"x","progress":12.5}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, EventTypeSyncingMods, payload.EventType)
	require.NotNil(t, payload.Progress)
	assert.Equal(t, 12.5, *payload.Progress)
}

func TestEventPayload_OmitsOptionalFields(t *testing.T) {
	data, err := json.Marshal(EventPayload{EventID: "e1", EventType: EventTypeError, Message: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event_id":"e1","event_type":"error","message":"boom"}`, string(data))
}

func TestEventType_EndsLaunch(t *testing.T) {
	assert.True(t, EventTypeMinecraftProcessExited.EndsLaunch())
	assert.True(t, EventTypeError.EndsLaunch())
	assert.False(t, EventTypeLaunchCancelled.EndsLaunch())
	assert.False(t, EventTypeMinecraftOutput.EndsLaunch())
}
