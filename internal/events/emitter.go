package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/metrics"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Emitter publishes EventPayloads on the state_event subject.
type Emitter struct {
	bus    bus.EventBus
	source string
	logger *logger.Logger
}

// NewEmitter returns an Emitter that tags events with source.
func NewEmitter(eventBus bus.EventBus, source string, log *logger.Logger) *Emitter {
	return &Emitter{
		bus:    eventBus,
		source: source,
		logger: log.WithComponent("emitter"),
	}
}

// Emit assigns an event id when missing and publishes the payload.
// The returned payload is the one that was sent.
func (e *Emitter) Emit(ctx context.Context, payload v1.EventPayload) (v1.EventPayload, error) {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}

	event := bus.NewEvent(string(payload.EventType), e.source, payload)
	event.ID = payload.EventID

	if err := e.bus.Publish(ctx, StateEventSubject, event); err != nil {
		e.logger.Warn("Failed to publish state event",
			zap.String("event_type", string(payload.EventType)),
			zap.String("target_id", payload.Target()),
			zap.Error(err))
		return payload, fmt.Errorf("publish %s: %w", payload.EventType, err)
	}

	metrics.RecordEventPublished(string(payload.EventType))
	return payload, nil
}

// DecodePayload recovers the EventPayload carried by a bus event. The memory
// bus hands over the original value; NATS delivers decoded JSON.
func DecodePayload(event *bus.Event) (v1.EventPayload, error) {
	switch data := event.Data.(type) {
	case v1.EventPayload:
		return data, nil
	case *v1.EventPayload:
		if data == nil {
			return v1.EventPayload{}, fmt.Errorf("event %s has nil payload", event.ID)
		}
		return *data, nil
	case nil:
		return v1.EventPayload{}, fmt.Errorf("event %s has no payload", event.ID)
	}

	raw, err := json.Marshal(event.Data)
	if err != nil {
		return v1.EventPayload{}, fmt.Errorf("re-encode event %s: %w", event.ID, err)
	}
	var payload v1.EventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return v1.EventPayload{}, fmt.Errorf("decode event %s: %w", event.ID, err)
	}
	if payload.EventID == "" {
		payload.EventID = event.ID
	}
	return payload, nil
}

// SubscribeState subscribes fn to every state event, decoding payloads first.
// Events that do not decode are logged and skipped.
func SubscribeState(eventBus bus.EventBus, log *logger.Logger, fn func(ctx context.Context, payload v1.EventPayload)) (bus.Subscription, error) {
	return eventBus.Subscribe(StateEventSubject, func(ctx context.Context, event *bus.Event) error {
		payload, err := DecodePayload(event)
		if err != nil {
			log.Warn("Dropping undecodable state event", zap.String("event_id", event.ID), zap.Error(err))
			return nil
		}
		fn(ctx, payload)
		return nil
	})
}
