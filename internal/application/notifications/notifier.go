package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which transfer notification to send.
type Kind string

const (
	TransferInitiated Kind = "transfer_initiated"
	TransferAccepted  Kind = "transfer_accepted"
	TransferRejected  Kind = "transfer_rejected"
	TransferCancelled Kind = "transfer_cancelled"
)

// ErrNotConfigured is returned by senders that have no credentials.
var ErrNotConfigured = errors.New("notification sender is not configured")

// Message is the context handed to a Notifier alongside the kind.
type Message struct {
	TransferID       uuid.UUID
	OrganizationID   uuid.UUID
	OrganizationName string
	ActorID          uuid.UUID
	Reason           string
	ExpiresAt        time.Time
}

// Notifier delivers one notification to one user. Implementations may block on I/O;
// the Dispatcher runs them off the request path.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, toUserID uuid.UUID, msg Message) error
}
