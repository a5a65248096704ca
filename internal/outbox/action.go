package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is one mutating request waiting to be replayed against the server.
// The field names are part of the on-disk contract and must stay stable.
type Action struct {
	ID         string          `json:"id"`
	Method     string          `json:"method"`
	Target     string          `json:"target"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAction builds a fresh queue entry. The id only has to be collision
// resistant within one device queue, a uuid is more than enough.
func NewAction(method, target string, payload json.RawMessage, createdAt time.Time) Action {
	return Action{
		ID:        uuid.NewString(),
		Method:    method,
		Target:    target,
		Payload:   payload,
		CreatedAt: createdAt,
	}
}
