// Package producer defines the interface for publishing user events to a broker (Kafka).
package producer

import (
	"context"

	"user-registry/internal/telemetry/domain"
)

// Producer publishes user events. Callers use it best-effort: log and ignore errors.
// Every Producer is also a telemetry.EventEmitter.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, event *domain.UserEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
