package telemetry

import (
	"context"
	"errors"

	"user-registry/internal/telemetry/domain"
)

// EventEmitter emits user events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.UserEvent) error
}

// MultiEmitter fans an event out to every emitter and joins their errors.
type MultiEmitter []EventEmitter

// Emit calls Emit on each non-nil emitter even when an earlier one fails.
func (m MultiEmitter) Emit(ctx context.Context, event *domain.UserEvent) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
