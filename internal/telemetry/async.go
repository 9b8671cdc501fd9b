package telemetry

import (
	"context"
	"log/slog"
	"time"

	"user-registry/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the servers stop before shutting down OTel providers
// and the Kafka writer, so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// Emit errors and panics are logged, never propagated.
// emitter and event may be nil; EmitAsync then returns without starting a goroutine.
// The goroutine uses context.WithoutCancel so request cancellation does not abort the emit,
// while trace context from ctx is kept.
func EmitAsync(ctx context.Context, emitter EventEmitter, event *domain.UserEvent) {
	if emitter == nil || event == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("telemetry: async emit panicked", "event_type", event.EventType, "panic", r)
			}
		}()
		emitCtx, cancel := context.WithTimeout(base, emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			slog.Warn("telemetry: async emit failed", "event_type", event.EventType, "error", err)
		}
	}()
}
