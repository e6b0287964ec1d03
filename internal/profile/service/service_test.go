package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/profile/models"
	"github.com/noriskclient/launcherd/internal/profile/repository"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func newTestService(t *testing.T) (*Service, <-chan v1.EventPayload) {
	t.Helper()
	log := logger.NewNop()
	b := bus.NewMemoryEventBus(log)
	t.Cleanup(b.Close)

	received := make(chan v1.EventPayload, 16)
	_, err := events.SubscribeState(b, log, func(_ context.Context, p v1.EventPayload) { received <- p })
	require.NoError(t, err)

	svc := NewService(repository.NewMemoryRepository(), events.NewEmitter(b, events.SourceProfiles, log), log)
	return svc, received
}

func nextEvent(t *testing.T, ch <-chan v1.EventPayload) v1.EventPayload {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return v1.EventPayload{}
	}
}

func TestService_CreateEmitsProfileUpdate(t *testing.T) {
	svc, received := newTestService(t)

	p, err := svc.Create(context.Background(), &CreateRequest{Name: "Vanilla", GameVersion: "1.20.4"})
	require.NoError(t, err)
	assert.Equal(t, models.LoaderVanilla, p.Loader)

	ev := nextEvent(t, received)
	assert.Equal(t, v1.EventTypeProfileUpdate, ev.EventType)
	assert.Equal(t, p.ID, ev.Target())
}

func TestService_CreateValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &CreateRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = svc.Create(context.Background(), &CreateRequest{Name: "x", GameVersion: "1.0", Loader: "liteloader"})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc, received := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, &CreateRequest{Name: "Modded", GameVersion: "1.21"})
	require.NoError(t, err)
	nextEvent(t, received)

	loader := models.LoaderNeoForge
	updated, err := svc.Update(ctx, p.ID, &UpdateRequest{Loader: &loader, JVMArgs: []string{"-Xmx8G"}})
	require.NoError(t, err)
	assert.Equal(t, models.LoaderNeoForge, updated.Loader)
	assert.Equal(t, "Modded", updated.Name)
	assert.Equal(t, "Profile updated", nextEvent(t, received).Message)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, "Profile deleted", nextEvent(t, received).Message)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
