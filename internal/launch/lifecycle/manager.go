// Package lifecycle runs profile launches: it registers them, drives the
// launch task, and removes the registry entry once the launch is over.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/config"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/launch/registry"
	"github.com/noriskclient/launcherd/internal/metrics"
	"github.com/noriskclient/launcherd/internal/profile/models"
	"github.com/noriskclient/launcherd/internal/tracing"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// ProfileSource resolves profiles by id.
type ProfileSource interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// EventEmitter publishes state events.
type EventEmitter interface {
	Emit(ctx context.Context, payload v1.EventPayload) (v1.EventPayload, error)
}

// Options tune launch teardown.
type Options struct {
	AbortGrace   time.Duration
	AbortTimeout time.Duration
	ReapInterval time.Duration
	OutputEvents bool
}

// OptionsFromConfig converts the launch section of the configuration.
func OptionsFromConfig(cfg config.LaunchConfig) Options {
	return Options{
		AbortGrace:   cfg.AbortGrace,
		AbortTimeout: cfg.AbortTimeout,
		ReapInterval: cfg.ReapInterval,
		OutputEvents: cfg.OutputEvents,
	}
}

func (o *Options) setDefaults() {
	if o.AbortGrace <= 0 {
		o.AbortGrace = 5 * time.Second
	}
	if o.AbortTimeout <= 0 {
		o.AbortTimeout = 10 * time.Second
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = 5 * time.Second
	}
}

// Manager owns every launch task.
type Manager struct {
	registry *registry.Registry
	profiles ProfileSource
	preparer Preparer
	emitter  EventEmitter
	opts     Options
	logger   *logger.Logger
	tracer   trace.Tracer

	// mu is read-held by launches and write-held by Stop, so launches of
	// different profiles only meet in the registry.
	mu      sync.RWMutex
	stopped bool
	tasks   sync.WaitGroup

	stopCh   chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup
}

// NewManager creates a new lifecycle manager
func NewManager(
	reg *registry.Registry,
	profiles ProfileSource,
	preparer Preparer,
	emitter EventEmitter,
	opts Options,
	log *logger.Logger,
) *Manager {
	opts.setDefaults()
	return &Manager{
		registry: reg,
		profiles: profiles,
		preparer: preparer,
		emitter:  emitter,
		opts:     opts,
		logger:   log.WithFields(zap.String("component", "launch-lifecycle")),
		tracer:   tracing.Tracer("launch-lifecycle"),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the background reaper.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("starting launch manager",
		zap.Duration("abort_grace", m.opts.AbortGrace),
		zap.Duration("abort_timeout", m.opts.AbortTimeout))

	m.loops.Add(1)
	go m.reapLoop(ctx)
	return nil
}

// Stop aborts every in-flight launch and waits for the launch tasks, bounded by ctx.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping launch manager", zap.Int("active_launches", m.registry.Len()))

	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	for _, meta := range m.registry.List() {
		if _, err := m.registry.Abort(meta.ProfileID); err != nil {
			m.logger.Debug("abort on shutdown skipped", zap.String("profile_id", meta.ProfileID), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.tasks.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for launch tasks: %w", ctx.Err())
	}

	m.stopOnce.Do(func() { close(m.stopCh) })
	m.loops.Wait()
	return err
}

// LaunchProfile registers a launch of profileID and starts it in the background.
// A duplicate launch fails synchronously with registry.ErrAlreadyLaunching.
// Everything after registration is reported through events.
func (m *Manager) LaunchProfile(ctx context.Context, profileID string) (v1.ProcessMetadata, error) {
	profile, err := m.profiles.Get(ctx, profileID)
	if err != nil {
		metrics.RecordLaunchRejected("profile_not_found")
		return v1.ProcessMetadata{}, fmt.Errorf("resolve profile %s: %w", profileID, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stopped {
		metrics.RecordLaunchRejected("stopped")
		return v1.ProcessMetadata{}, ErrManagerStopped
	}

	entry, err := m.registry.Register(profileID)
	if err != nil {
		metrics.RecordLaunchRejected("already_launching")
		return v1.ProcessMetadata{}, err
	}

	meta := entry.Snapshot()
	m.logger.Info("launch registered",
		zap.String("profile_id", profileID),
		zap.String("launch_id", meta.ID))
	metrics.RecordLaunchStarted()

	m.tasks.Add(1)
	go m.runLaunch(entry, profile)

	return meta, nil
}

// AbortProfileLaunch requests cancellation of the profile's launch.
// It fails with registry.ErrNotLaunching if nothing is in flight. The launch
// task announces the cancellation and removes the entry once the game is down.
func (m *Manager) AbortProfileLaunch(ctx context.Context, profileID string) error {
	meta, err := m.registry.Abort(profileID)
	if err != nil {
		return err
	}
	m.logger.Info("launch abort requested",
		zap.String("profile_id", profileID),
		zap.String("launch_id", meta.ID),
		zap.Int("pid", meta.PID))
	return nil
}

// IsProfileLaunching reports whether the profile has an in-flight launch.
func (m *Manager) IsProfileLaunching(profileID string) (v1.ProcessMetadata, bool) {
	return m.registry.Lookup(profileID)
}

// ListLaunches returns every in-flight launch.
func (m *Manager) ListLaunches() []v1.ProcessMetadata {
	return m.registry.List()
}
