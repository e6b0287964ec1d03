package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload v1.EventPayload
		want    string
	}{
		{
			name: "progress",
			payload: v1.EventPayload{
				EventType: v1.EventTypeDownloadingAssets,
				TargetID:  v1.StringPtr("abc"),
				Message:   "Downloading assets",
				Progress:  v1.Float64Ptr(42),
			},
			want: "[abc] downloading_assets  42.0% Downloading assets",
		},
		{
			name: "failure",
			payload: v1.EventPayload{
				EventType: v1.EventTypeMinecraftProcessExited,
				TargetID:  v1.StringPtr("abc"),
				Error:     v1.StringPtr("process exited with code 1"),
			},
			want: `[abc] minecraft_process_exited error="process exited with code 1"`,
		},
		{
			name:    "no target",
			payload: v1.EventPayload{EventType: v1.EventTypeAccountLogin, Message: "ok"},
			want:    "[] account_login ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEvent(tt.payload))
		})
	}
}

func TestRootCmd_HasCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"launch", "abort", "status", "watch"} {
		cmd, _, err := root.Find([]string{name})
		assert.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
