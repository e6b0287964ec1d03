package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events"
	"github.com/noriskclient/launcherd/internal/events/bus"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

// StateEventBroadcaster forwards every state event to all websocket clients.
type StateEventBroadcaster struct {
	hub          *Hub
	subscription bus.Subscription
	logger       *logger.Logger
}

// RegisterStateNotifications subscribes to state events on eventBus and
// broadcasts each one as a state_event notification.
func RegisterStateNotifications(eventBus bus.EventBus, hub *Hub, log *logger.Logger) (*StateEventBroadcaster, error) {
	b := &StateEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-state-broadcaster")),
	}

	sub, err := events.SubscribeState(eventBus, b.logger, b.forward)
	if err != nil {
		return nil, err
	}
	b.subscription = sub
	return b, nil
}

func (b *StateEventBroadcaster) forward(_ context.Context, payload v1.EventPayload) {
	msg, err := ws.NewNotification(ws.ActionStateEvent, payload)
	if err != nil {
		b.logger.Error("Failed to build state notification", zap.String("event_id", payload.EventID), zap.Error(err))
		return
	}
	b.hub.Broadcast(msg)
}

// Close stops forwarding.
func (b *StateEventBroadcaster) Close() {
	if b.subscription != nil && b.subscription.IsValid() {
		if err := b.subscription.Unsubscribe(); err != nil {
			b.logger.Warn("Failed to unsubscribe state broadcaster", zap.Error(err))
		}
	}
}
