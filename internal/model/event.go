// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to the audit queue.
const (
	EventAccountRegistered = "account.registered"
	EventMessageCreated    = "message.created"
	EventMessageUpdated    = "message.updated"
	EventMessageDeleted    = "message.deleted"
)

// Event is the envelope published after a successful write operation.
// AccountID and MessageID are zero when not applicable to the event type.
type Event struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Type       string    `json:"type" db:"type"`
	AccountID  int64     `json:"account_id,omitempty" db:"account_id"`
	MessageID  int64     `json:"message_id,omitempty" db:"message_id"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
