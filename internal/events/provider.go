package events

import (
	"fmt"
	"strings"

	"github.com/noriskclient/launcherd/internal/common/config"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/metrics"
)

// ProvidedBus wraps the active event bus implementation.
type ProvidedBus struct {
	Bus    bus.EventBus
	Memory *bus.MemoryEventBus
	NATS   *bus.NATSEventBus
}

// Provide builds the configured event bus implementation.
func Provide(cfg *config.Config, log *logger.Logger) (*ProvidedBus, func() error, error) {
	if strings.TrimSpace(cfg.NATS.URL) != "" {
		natsBus, err := bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize NATS event bus: %w", err)
		}
		cleanup := func() error {
			natsBus.Close()
			return nil
		}
		return &ProvidedBus{Bus: natsBus, NATS: natsBus}, cleanup, nil
	}

	memBus := bus.NewMemoryEventBus(log,
		bus.WithQueueSize(cfg.Launch.QueueSize),
		bus.WithDropFunc(recordDrop),
	)
	cleanup := func() error {
		memBus.Close()
		return nil
	}
	return &ProvidedBus{Bus: memBus, Memory: memBus}, cleanup, nil
}

// recordDrop counts a dropped delivery by event type; every state event
// shares one subject.
func recordDrop(_ string, event *bus.Event) {
	var eventType string
	if event != nil {
		eventType = event.Type
	}
	metrics.RecordEventDropped(eventType)
}
