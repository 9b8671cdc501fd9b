package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a user lifecycle transition.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

// UserEvent is a best-effort notification that a user record changed.
// It is the JSON payload written to Kafka and the body of the OTel log record.
type UserEvent struct {
	ID        string    `json:"id"`
	EventType EventType `json:"event_type"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserEvent returns an event with a fresh id and the current UTC time.
func NewUserEvent(eventType EventType, userID int64, email, source string) *UserEvent {
	return &UserEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
