package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stridefit/backend/internal/clock"
	"github.com/stridefit/backend/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/codes"
)

// Queue is the in-memory view of the pending actions, backed by a Store.
// Every mutation persists the full list before returning, so a crash at
// any point loses at most the mutation in flight.
type Queue struct {
	mutex   sync.Mutex
	store   Store
	clock   clock.Clock
	actions []Action
}

func NewQueue(ctx context.Context, store Store, c clock.Clock) (*Queue, error) {
	actions, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return &Queue{
		store:   store,
		clock:   c,
		actions: actions,
	}, nil
}

// Enqueue appends an action, returning the new entry and the updated
// pending count.
func (q *Queue) Enqueue(ctx context.Context, method, target string, payload json.RawMessage) (_ Action, _ int, err error) {
	ctx, span := tracing.GlobalAgentTracer.Start(ctx, "outbox.queue.enqueue")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	q.mutex.Lock()
	defer q.mutex.Unlock()

	action := NewAction(method, target, payload, q.clock.Now())
	next := append(append([]Action{}, q.actions...), action)
	if err := q.store.Save(ctx, next); err != nil {
		return Action{}, 0, fmt.Errorf("persist queue: %w", err)
	}
	q.actions = next

	return action, len(next), nil
}

func (q *Queue) PendingCount() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.actions)
}

// Snapshot returns a copy of the queue in FIFO order.
func (q *Queue) Snapshot() []Action {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	snapshot := make([]Action, len(q.actions))
	copy(snapshot, q.actions)
	return snapshot
}

func (q *Queue) Remove(ctx context.Context, actionID string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	index := q.indexOf(actionID)
	if index < 0 {
		return ErrActionNotFound
	}

	next := make([]Action, 0, len(q.actions)-1)
	next = append(next, q.actions[:index]...)
	next = append(next, q.actions[index+1:]...)
	if err := q.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	q.actions = next

	return nil
}

// IncrementRetry bumps the retry counter of an action and returns the new count.
func (q *Queue) IncrementRetry(ctx context.Context, actionID string) (int, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	index := q.indexOf(actionID)
	if index < 0 {
		return 0, ErrActionNotFound
	}

	next := make([]Action, len(q.actions))
	copy(next, q.actions)
	next[index].RetryCount++
	if err := q.store.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("persist queue: %w", err)
	}
	q.actions = next

	return next[index].RetryCount, nil
}

func (q *Queue) indexOf(actionID string) int {
	for i := range q.actions {
		if q.actions[i].ID == actionID {
			return i
		}
	}
	return -1
}
