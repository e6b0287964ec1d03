package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/metrics"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// reapLoop periodically removes launches stuck in Stopping.
func (m *Manager) reapLoop(ctx context.Context) {
	defer m.loops.Done()

	ticker := time.NewTicker(m.opts.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("reaper stopped (context cancelled)")
			return
		case <-m.stopCh:
			m.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			m.reap(ctx, time.Now())
		}
	}
}

// reap force-removes entries that have been Stopping for longer than the
// full abort budget and emits the terminal error their task never sent.
func (m *Manager) reap(ctx context.Context, now time.Time) int {
	deadline := m.opts.AbortGrace + m.opts.AbortTimeout + m.opts.ReapInterval
	reaped := 0

	for _, entry := range m.registry.Entries() {
		since := entry.StoppingSince()
		if since.IsZero() || now.Sub(since) < deadline {
			continue
		}
		meta := entry.Snapshot()
		if meta.State != v1.ProcessStateStopping {
			continue
		}
		if !m.registry.RemoveEntry(entry) {
			continue
		}
		reaped++
		metrics.RecordLaunchFinished(metrics.OutcomeReaped, now.Sub(meta.StartTime).Seconds())

		m.logger.Warn("reaped stuck launch",
			zap.String("profile_id", meta.ProfileID),
			zap.String("launch_id", meta.ID),
			zap.Duration("stopping_for", now.Sub(since)))

		_, err := m.emitter.Emit(ctx, v1.EventPayload{
			EventType: v1.EventTypeError,
			TargetID:  v1.StringPtr(meta.ProfileID),
			Message:   "Launch did not stop",
			Error:     v1.StringPtr(ErrAbortTimeout.Error()),
		})
		if err != nil {
			m.logger.Warn("failed to emit reap event", zap.String("profile_id", meta.ProfileID), zap.Error(err))
		}
	}
	return reaped
}
