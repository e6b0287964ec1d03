package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/launch/process"
	"github.com/noriskclient/launcherd/internal/launch/registry"
	"github.com/noriskclient/launcherd/internal/metrics"
	"github.com/noriskclient/launcherd/internal/profile/models"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// launch is the state of one running launch task.
type launch struct {
	entry     *registry.Entry
	profileID string
	emitCtx   context.Context
	span      trace.Span
	logger    *logger.Logger
	cancelled bool
}

func (m *Manager) runLaunch(entry *registry.Entry, profile *models.Profile) {
	defer m.tasks.Done()

	meta := entry.Snapshot()
	ctx := context.WithValue(context.Background(), logger.LaunchIDKey, meta.ID)
	ctx, span := m.tracer.Start(ctx, "launch",
		trace.WithAttributes(
			attribute.String("profile.id", meta.ProfileID),
			attribute.String("launch.id", meta.ID),
		))
	defer span.End()

	l := &launch{
		entry:     entry,
		profileID: meta.ProfileID,
		emitCtx:   ctx,
		span:      span,
		logger:    m.logger.WithProfileID(meta.ProfileID).WithContext(ctx),
	}

	// workCtx is cancelled when the launch is aborted.
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-entry.Aborted():
			cancel()
		case <-workCtx.Done():
		}
	}()

	reporter := newReporter(ctx, m.emitter, meta.ProfileID, l.logger)

	spec, err := m.preparer.Prepare(workCtx, profile, reporter)
	if entry.IsAborted() {
		m.finishAborted(l)
		return
	}
	if err != nil {
		m.finishFailed(l, fmt.Errorf("prepare launch: %w", err))
		return
	}

	reporter.Progress(v1.EventTypeLaunchingMinecraft, "Launching Minecraft", 100)
	proc, err := process.Start(workCtx, *spec, m.outputForwarder(l))
	if err != nil {
		if entry.IsAborted() {
			m.finishAborted(l)
			return
		}
		m.finishFailed(l, fmt.Errorf("%w: %v", ErrProcessSpawn, err))
		return
	}

	entry.SetPID(proc.Pid())
	span.SetAttributes(attribute.Int("process.pid", proc.Pid()))
	if err := entry.Transition(v1.ProcessStateRunning); err != nil {
		// Aborted between spawn and here; the wait below sees it.
		l.logger.Debug("launch not marked running", zap.Error(err))
	} else {
		l.logger.Info("game process running", zap.Int("pid", proc.Pid()))
	}

	select {
	case <-proc.Done():
	case <-entry.Aborted():
		m.announceCancel(l)
		m.terminate(l, proc)
	}

	m.finishExited(l, proc)
}

func (m *Manager) outputForwarder(l *launch) process.OutputFunc {
	if !m.opts.OutputEvents {
		return nil
	}
	return func(stream, line string) {
		m.emit(l, v1.EventPayload{
			EventType: v1.EventTypeMinecraftOutput,
			TargetID:  v1.StringPtr(l.profileID),
			Message:   line,
		})
	}
}

func (m *Manager) terminate(l *launch, proc *process.Process) {
	err := proc.Terminate(m.opts.AbortGrace, m.opts.AbortTimeout)
	if err == nil {
		return
	}
	if errors.Is(err, process.ErrKillFailed) {
		err = fmt.Errorf("%w: %v", ErrAbortTimeout, err)
	}
	l.logger.Error("failed to stop aborted game process", zap.Int("pid", proc.Pid()), zap.Error(err))
	l.span.RecordError(err)
}

// announceCancel emits launch_cancelled once per launch.
func (m *Manager) announceCancel(l *launch) {
	if l.cancelled {
		return
	}
	l.cancelled = true
	m.emit(l, v1.EventPayload{
		EventType: v1.EventTypeLaunchCancelled,
		TargetID:  v1.StringPtr(l.profileID),
		Message:   "Launch cancelled",
	})
}

func (m *Manager) finishExited(l *launch, proc *process.Process) {
	if l.entry.IsAborted() {
		m.finishAborted(l)
		return
	}

	code := proc.ExitCode()
	if code == 0 {
		m.finish(l, v1.ProcessStateStopped, metrics.OutcomeStopped, v1.EventPayload{
			EventType: v1.EventTypeMinecraftProcessExited,
			TargetID:  v1.StringPtr(l.profileID),
			Message:   "Minecraft exited",
		})
		return
	}

	msg := fmt.Sprintf("process exited with code %d", code)
	l.span.SetStatus(codes.Error, msg)
	m.finish(l, v1.ProcessStateCrashed, metrics.OutcomeCrashed, v1.EventPayload{
		EventType: v1.EventTypeMinecraftProcessExited,
		TargetID:  v1.StringPtr(l.profileID),
		Message:   "Minecraft crashed",
		Error:     v1.StringPtr(msg),
	})
}

func (m *Manager) finishAborted(l *launch) {
	if live, ok := m.registry.Get(l.profileID); !ok || live != l.entry {
		l.logger.Debug("aborted launch already removed")
		return
	}
	m.announceCancel(l)
	m.finish(l, v1.ProcessStateStopped, metrics.OutcomeAborted, v1.EventPayload{
		EventType: v1.EventTypeMinecraftProcessExited,
		TargetID:  v1.StringPtr(l.profileID),
		Message:   "aborted",
	})
}

func (m *Manager) finishFailed(l *launch, err error) {
	l.logger.Warn("launch failed", zap.Error(err))
	l.span.RecordError(err)
	l.span.SetStatus(codes.Error, err.Error())
	m.finish(l, v1.ProcessStateCrashed, metrics.OutcomeFailed, v1.EventPayload{
		EventType: v1.EventTypeError,
		TargetID:  v1.StringPtr(l.profileID),
		Message:   "Launch failed",
		Error:     v1.StringPtr(err.Error()),
	})
}

// finish records the terminal state, removes the entry and then emits the
// terminal event. If the reaper already removed the entry nothing is emitted.
func (m *Manager) finish(l *launch, next v1.ProcessState, outcome string, payload v1.EventPayload) {
	meta := l.entry.Snapshot()
	if err := l.entry.Transition(next); err != nil {
		l.logger.Warn("unexpected terminal transition", zap.Error(err))
	}

	if !m.registry.RemoveEntry(l.entry) {
		l.logger.Debug("launch entry already removed")
		return
	}
	metrics.RecordLaunchFinished(outcome, time.Since(meta.StartTime).Seconds())

	l.logger.Info("launch finished",
		zap.String("outcome", outcome),
		zap.String("state", string(next)))
	m.emit(l, payload)
}

func (m *Manager) emit(l *launch, payload v1.EventPayload) {
	if _, err := m.emitter.Emit(l.emitCtx, payload); err != nil {
		l.logger.Warn("failed to emit launch event",
			zap.String("event_type", string(payload.EventType)),
			zap.Error(err))
	}
}
