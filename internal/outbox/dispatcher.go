package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/stridefit/backend/internal/telemetry/tracing"
)

// Result tells the caller whether an action was delivered right away or
// parked in the queue for a later drain.
type Result struct {
	Delivered bool
	ActionID  string
}

type onlineChecker interface {
	Online() bool
}

// Dispatcher is the entry point for user actions on the agent: it tries
// direct delivery and falls back to the queue on connectivity failures.
// Application failures are returned to the caller untouched and never
// queued, replaying a request the server already rejected cannot help.
type Dispatcher struct {
	queue      *Queue
	submitter  Submitter
	online     onlineChecker
	onEnqueued func(pending int)
}

func NewDispatcher(queue *Queue, submitter Submitter, online onlineChecker, onEnqueued func(pending int)) *Dispatcher {
	return &Dispatcher{
		queue:      queue,
		submitter:  submitter,
		online:     online,
		onEnqueued: onEnqueued,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, method, target string, payload json.RawMessage) (_ Result, err error) {
	ctx, span := tracing.GlobalAgentTracer.Start(ctx, "outbox.dispatcher.dispatch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	submitErr := ErrOffline
	if d.online == nil || d.online.Online() {
		attempt := NewAction(method, target, payload, d.queue.clock.Now())
		submitErr = d.submitter.Submit(ctx, attempt)
		if submitErr == nil {
			return Result{Delivered: true, ActionID: attempt.ID}, nil
		}
	}

	if !IsConnectivityError(submitErr) {
		return Result{}, submitErr
	}

	action, pending, err := d.queue.Enqueue(ctx, method, target, payload)
	if err != nil {
		return Result{}, fmt.Errorf("enqueue after failed delivery: %w", err)
	}

	log.Debugf("dispatch: %s %s queued [%s], pending %d", method, target, action.ID, pending)
	if d.onEnqueued != nil {
		d.onEnqueued(pending)
	}

	return Result{Delivered: false, ActionID: action.ID}, nil
}
