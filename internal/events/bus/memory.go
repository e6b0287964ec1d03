package bus

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

const defaultQueueSize = 256

// DropFunc is called when an event cannot be queued for a subscriber.
type DropFunc func(subject string, event *Event)

// MemoryOption configures a MemoryEventBus.
type MemoryOption func(*MemoryEventBus)

// WithQueueSize sets the per-subscription queue length.
func WithQueueSize(n int) MemoryOption {
	return func(b *MemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithDropFunc registers a callback for events dropped on a full queue.
func WithDropFunc(fn DropFunc) MemoryOption {
	return func(b *MemoryEventBus) {
		b.onDrop = fn
	}
}

// MemoryEventBus implements EventBus in process.
//
// Every subscription owns a bounded queue drained by a single goroutine, so a
// subscriber sees events in the order they were published. Publish never waits
// on a subscriber: when a queue is full the event is dropped for that
// subscriber only.
type MemoryEventBus struct {
	subscriptions map[string][]*memorySubscription
	mu            sync.RWMutex
	logger        *logger.Logger
	closed        bool
	queueSize     int
	onDrop        DropFunc
	dropped       atomic.Uint64
}

type memorySubscription struct {
	bus     *MemoryEventBus
	subject string
	pattern *regexp.Regexp
	handler EventHandler
	queue   chan queuedEvent

	// callMu is held for the duration of each handler call.
	callMu   sync.Mutex
	active   atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type queuedEvent struct {
	ctx     context.Context
	subject string
	event   *Event
}

// NewMemoryEventBus creates a new in-memory event bus.
func NewMemoryEventBus(log *logger.Logger, opts ...MemoryOption) *MemoryEventBus {
	b := &MemoryEventBus{
		subscriptions: make(map[string][]*memorySubscription),
		logger:        log.WithComponent("memory-bus"),
		queueSize:     defaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish queues the event for every matching subscription.
// It returns without waiting for any handler.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	// Handlers run after Publish returns and must not inherit request cancellation.
	deliveryCtx := context.WithoutCancel(ctx)
	delivered := 0

	for pattern, subs := range b.subscriptions {
		for _, sub := range subs {
			if !sub.active.Load() || !matches(subject, pattern, sub.pattern) {
				continue
			}
			select {
			case sub.queue <- queuedEvent{ctx: deliveryCtx, subject: subject, event: event}:
				delivered++
			default:
				b.dropped.Add(1)
				b.logger.Warn("Subscriber queue full, dropping event",
					zap.String("subject", subject),
					zap.String("pattern", pattern),
					zap.String("event_id", event.ID))
				if b.onDrop != nil {
					b.onDrop(subject, event)
				}
			}
		}
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int("subscribers", delivered))

	return nil
}

// Subscribe creates a subscription to a subject pattern.
func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		pattern: compilePattern(subject),
		handler: handler,
		queue:   make(chan queuedEvent, b.queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	sub.active.Store(true)

	b.subscriptions[subject] = append(b.subscriptions[subject], sub)
	go sub.run()

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Dropped returns how many deliveries were dropped on full queues.
func (b *MemoryEventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes the event bus and waits for every subscription to stop.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subscriptions
	b.subscriptions = make(map[string][]*memorySubscription)
	b.mu.Unlock()

	for _, list := range subs {
		for _, sub := range list {
			sub.shutdown()
		}
	}

	b.logger.Info("Memory event bus closed")
}

// IsConnected returns true until Close is called.
func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

func (b *MemoryEventBus) remove(s *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscriptions[s.subject]
	for i, sub := range subs {
		if sub == s {
			b.subscriptions[s.subject] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscriptions[s.subject]) == 0 {
		delete(b.subscriptions, s.subject)
	}
}

func (s *memorySubscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case q := <-s.queue:
			s.deliver(q)
		}
	}
}

func (s *memorySubscription) deliver(q queuedEvent) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if !s.active.Load() {
		return
	}
	if err := s.handler(q.ctx, q.event); err != nil {
		s.bus.logger.Error("Event handler error",
			zap.String("subject", q.subject),
			zap.String("event_id", q.event.ID),
			zap.Error(err))
	}
}

// Unsubscribe removes the subscription. It waits for an in-flight handler
// call to return, so it must not be called from the subscription's own handler.
// Once it returns the handler is never invoked again.
func (s *memorySubscription) Unsubscribe() error {
	s.bus.remove(s)
	s.shutdown()
	return nil
}

func (s *memorySubscription) shutdown() {
	s.stopOnce.Do(func() {
		s.callMu.Lock()
		s.active.Store(false)
		s.callMu.Unlock()
		close(s.stop)
	})
	<-s.done
}

// IsValid returns whether the subscription is still active.
func (s *memorySubscription) IsValid() bool {
	return s.active.Load()
}

// matches reports whether subject matches a NATS-style pattern:
// * matches one token and > matches one or more trailing tokens.
func matches(subject, pattern string, regex *regexp.Regexp) bool {
	if regex == nil {
		return subject == pattern
	}
	return regex.MatchString(subject)
}

// compilePattern converts a NATS-style pattern to a regex, or nil for a literal subject.
func compilePattern(pattern string) *regexp.Regexp {
	if !strings.Contains(pattern, "*") && !strings.Contains(pattern, ">") {
		return nil
	}

	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	escaped = strings.ReplaceAll(escaped, `>`, `.+`)

	regex, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil
	}
	return regex
}
