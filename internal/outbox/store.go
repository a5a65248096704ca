package outbox

import (
	"context"
	"errors"
)

var ErrActionNotFound = errors.New("queued action not found")

// Store is the durable persistence behind the offline queue. Implementations
// persist the whole ordered list in one shot; the queue never issues
// per-entry patches, so a torn write cannot leave a half-updated queue.
type Store interface {
	Load(ctx context.Context) ([]Action, error)
	Save(ctx context.Context, actions []Action) error
	Close() error
}
