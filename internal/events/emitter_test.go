package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noriskclient/launcherd/internal/common/config"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/metrics"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func TestEmitter_AssignsIDAndPublishesOnStateSubject(t *testing.T) {
	log := logger.NewNop()
	b := bus.NewMemoryEventBus(log)
	defer b.Close()

	got := make(chan v1.EventPayload, 1)
	sub, err := SubscribeState(b, log, func(_ context.Context, p v1.EventPayload) { got <- p })
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	sent, err := NewEmitter(b, SourceLifecycle, log).Emit(context.Background(), v1.EventPayload{
		EventType: v1.EventTypeLaunchingMinecraft,
		TargetID:  v1.StringPtr("abc"),
		Message:   "Launching",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sent.EventID)

	select {
	case p := <-got:
		assert.Equal(t, sent.EventID, p.EventID)
		assert.Equal(t, "abc", p.Target())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state event")
	}
}

func TestEmitter_ClosedBus(t *testing.T) {
	log := logger.NewNop()
	b := bus.NewMemoryEventBus(log)
	b.Close()

	_, err := NewEmitter(b, SourceLifecycle, log).Emit(context.Background(), v1.EventPayload{
		EventType: v1.EventTypeError,
		Message:   "x",
	})
	assert.ErrorIs(t, err, bus.ErrBusClosed)
}

func TestDecodePayload_FromJSON(t *testing.T) {
	original := bus.NewEvent("downloading_assets", SourceLifecycle, v1.EventPayload{
		EventID:   "e1",
		EventType: v1.EventTypeDownloadingAssets,
		Message:   "Downloading assets",
		Progress:  v1.Float64Ptr(42),
	})
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var wire bus.Event
	require.NoError(t, json.Unmarshal(raw, &wire))

	p, err := DecodePayload(&wire)
	require.NoError(t, err)
	assert.Equal(t, v1.EventTypeDownloadingAssets, p.EventType)
	require.NotNil(t, p.Progress)
	assert.InDelta(t, 42, *p.Progress, 0.0001)
	assert.Nil(t, p.TargetID)
}

func TestDecodePayload_NoData(t *testing.T) {
	_, err := DecodePayload(&bus.Event{ID: "e"})
	assert.Error(t, err)
}

func TestProvide_DefaultsToMemory(t *testing.T) {
	cfg := &config.Config{Launch: config.LaunchConfig{QueueSize: 8}}
	provided, cleanup, err := Provide(cfg, logger.NewNop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	assert.NotNil(t, provided.Memory)
	assert.Nil(t, provided.NATS)
	assert.True(t, provided.Bus.IsConnected())
}

func TestProvide_CountsDropsByEventType(t *testing.T) {
	cfg := &config.Config{Launch: config.LaunchConfig{QueueSize: 1}}
	provided, cleanup, err := Provide(cfg, logger.NewNop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	sub, err := SubscribeState(provided.Bus, logger.NewNop(), func(context.Context, v1.EventPayload) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()
	defer close(release)

	dropped := metrics.EventsDroppedTotal.WithLabelValues(string(v1.EventTypeDownloadingMods))
	before := testutil.ToFloat64(dropped)

	emitter := NewEmitter(provided.Bus, SourceLifecycle, logger.NewNop())
	emit := func() {
		_, err := emitter.Emit(context.Background(), v1.EventPayload{EventType: v1.EventTypeDownloadingMods, Message: "mods"})
		require.NoError(t, err)
	}

	emit()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	emit()
	emit()

	assert.Equal(t, before+1, testutil.ToFloat64(dropped))
	assert.Zero(t, testutil.ToFloat64(metrics.EventsDroppedTotal.WithLabelValues(StateEventSubject)))
}
