package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Reporter lets a Preparer publish phase progress for one launch.
//
// Progress is a percentage. Within a phase it never goes backwards, even when
// the phase is re-entered after another one: lower values are raised to the
// highest reported one and everything is clamped to
// [0, 100]. Terminal event types are reserved for the launch task and are
// ignored here.
type Reporter struct {
	ctx       context.Context
	emitter   EventEmitter
	profileID string
	logger    *logger.Logger

	mu   sync.Mutex
	high map[v1.EventType]float64
}

func newReporter(ctx context.Context, emitter EventEmitter, profileID string, log *logger.Logger) *Reporter {
	return &Reporter{
		ctx:       ctx,
		emitter:   emitter,
		profileID: profileID,
		logger:    log,
		high:      make(map[v1.EventType]float64),
	}
}

// Progress reports percent completion of phase.
func (r *Reporter) Progress(phase v1.EventType, message string, percent float64) {
	if !r.allowed(phase) {
		return
	}

	r.mu.Lock()
	percent = clampPercent(percent)
	if last, ok := r.high[phase]; ok && percent < last {
		percent = last
	}
	r.high[phase] = percent
	// Emitting under the lock keeps emission order equal to call order.
	r.emit(phase, message, v1.Float64Ptr(percent))
	r.mu.Unlock()
}

// Status reports a message for phase without progress.
func (r *Reporter) Status(phase v1.EventType, message string) {
	if !r.allowed(phase) {
		return
	}
	r.mu.Lock()
	r.emit(phase, message, nil)
	r.mu.Unlock()
}

func (r *Reporter) allowed(phase v1.EventType) bool {
	switch phase {
	case v1.EventTypeError, v1.EventTypeMinecraftProcessExited, v1.EventTypeLaunchCancelled, v1.EventTypeUnknown:
		r.logger.Warn("reporter cannot emit terminal event type", zap.String("event_type", string(phase)))
		return false
	}
	return phase.IsKnown()
}

func (r *Reporter) emit(phase v1.EventType, message string, progress *float64) {
	_, err := r.emitter.Emit(r.ctx, v1.EventPayload{
		EventType: phase,
		TargetID:  v1.StringPtr(r.profileID),
		Message:   message,
		Progress:  progress,
	})
	if err != nil {
		r.logger.Warn("failed to emit progress", zap.String("event_type", string(phase)), zap.Error(err))
	}
}

func clampPercent(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
