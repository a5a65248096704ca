package outbox

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/stridefit/backend/internal/clock"
	"github.com/stridefit/backend/internal/telemetry/metrics"
	"github.com/stridefit/backend/internal/telemetry/tracing"
)

const (
	// MaxRetries is the delivery budget per action, after which it is
	// dropped to the dead letter log instead of blocking the queue.
	MaxRetries = 3

	// DefaultDrainInterval is the periodic retry cadence while actions
	// are pending.
	DefaultDrainInterval = 30 * time.Second

	// DefaultSettleDelay is how long to wait after regaining
	// connectivity before draining, flaky links often drop again right
	// away.
	DefaultSettleDelay = time.Second

	// AttemptTimeout bounds a single delivery attempt during a drain.
	AttemptTimeout = 10 * time.Second
)

// Coordinator drains the queue when connectivity returns and keeps
// retrying on a timer while actions remain pending. At most one drain
// pass runs at a time.
type Coordinator struct {
	queue         *Queue
	submitter     Submitter
	online        onlineChecker
	deadLetter    *DeadLetterLog
	clock         clock.Clock
	metrics       *metrics.Manager
	drainInterval time.Duration
	settleDelay   time.Duration

	busy         atomic.Bool
	connectivity chan bool
	enqueued     chan struct{}
}

func NewCoordinator(
	queue *Queue,
	submitter Submitter,
	online onlineChecker,
	deadLetter *DeadLetterLog,
	c clock.Clock,
	metricsManager *metrics.Manager,
) *Coordinator {
	return &Coordinator{
		queue:         queue,
		submitter:     submitter,
		online:        online,
		deadLetter:    deadLetter,
		clock:         c,
		metrics:       metricsManager,
		drainInterval: DefaultDrainInterval,
		settleDelay:   DefaultSettleDelay,
		connectivity:  make(chan bool, 1),
		enqueued:      make(chan struct{}, 1),
	}
}

// SetOnlineChecker injects the connectivity source. Needed because the
// watcher and the coordinator reference each other; call before Run.
func (c *Coordinator) SetOnlineChecker(online onlineChecker) {
	c.online = online
}

// NotifyConnectivity feeds a connectivity change into the run loop. Safe
// to call from any goroutine, stale events are coalesced.
func (c *Coordinator) NotifyConnectivity(online bool) {
	select {
	case c.connectivity <- online:
	default:
		// drop and re-queue the freshest state
		select {
		case <-c.connectivity:
		default:
		}
		c.connectivity <- online
	}
}

// NotifyEnqueued tells the run loop the queue went non-empty, so the
// periodic retry ticker gets armed.
func (c *Coordinator) NotifyEnqueued() {
	select {
	case c.enqueued <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. It drains on startup when actions
// were left over from a previous run, then reacts to connectivity
// changes and the retry ticker.
func (c *Coordinator) Run(ctx context.Context) {
	if c.queue.PendingCount() > 0 && c.isOnline() {
		c.Drain(ctx)
	}
	c.metrics.GaugePendingActions.Set(float64(c.queue.PendingCount()))

	// the retry ticker only runs while the queue is non-empty
	ticker := time.NewTicker(c.drainInterval)
	if c.queue.PendingCount() == 0 {
		ticker.Stop()
	}
	tickerRunning := c.queue.PendingCount() > 0

	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	stopSettle := func() {
		if settleTimer != nil {
			settleTimer.Stop()
			settleTimer = nil
			settleCh = nil
		}
	}

	syncTicker := func() {
		pending := c.queue.PendingCount()
		c.metrics.GaugePendingActions.Set(float64(pending))
		if pending > 0 && !tickerRunning {
			ticker.Reset(c.drainInterval)
			tickerRunning = true
		} else if pending == 0 && tickerRunning {
			ticker.Stop()
			tickerRunning = false
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopSettle()
			ticker.Stop()
			log.Debug("sync coordinator: stopping")
			return

		case online := <-c.connectivity:
			if !online {
				// connectivity lost before the settle delay elapsed
				stopSettle()
				continue
			}
			if c.queue.PendingCount() == 0 {
				continue
			}
			stopSettle()
			settleTimer = time.NewTimer(c.settleDelay)
			settleCh = settleTimer.C

		case <-settleCh:
			settleTimer = nil
			settleCh = nil
			c.Drain(ctx)
			syncTicker()

		case <-ticker.C:
			if c.isOnline() {
				c.Drain(ctx)
			}
			syncTicker()

		case <-c.enqueued:
			syncTicker()
		}
	}
}

func (c *Coordinator) isOnline() bool {
	return c.online == nil || c.online.Online()
}

// Drain replays the queue front to back, one action at a time. Returns
// the number of actions delivered. Only one pass runs at a time, a call
// while another pass is active is a no-op.
func (c *Coordinator) Drain(ctx context.Context) (delivered int) {
	if !c.busy.CompareAndSwap(false, true) {
		log.Trace("sync coordinator: drain already in progress")
		return 0
	}
	defer c.busy.Store(false)

	ctx, span := tracing.GlobalAgentTracer.Start(ctx, "outbox.coordinator.drain")
	defer span.End()

	started := time.Now()
	defer func() {
		c.metrics.HistDrainPassDuration.Observe(time.Since(started).Seconds())
		c.metrics.GaugePendingActions.Set(float64(c.queue.PendingCount()))
	}()

	snapshot := c.queue.Snapshot()
	log.Debugf("sync coordinator: draining %d pending actions", len(snapshot))

	for _, action := range snapshot {
		if ctx.Err() != nil {
			return delivered
		}

		attemptCtx, cancel := context.WithTimeout(ctx, AttemptTimeout)
		submitErr := c.submitter.Submit(attemptCtx, action)
		cancel()

		if submitErr == nil {
			if err := c.queue.Remove(ctx, action.ID); err != nil {
				log.Errorf("sync coordinator: remove delivered action %s: %s", action.ID, err)
			}
			c.metrics.CounterActionsDelivered.Inc()
			delivered++
			continue
		}

		span.RecordError(submitErr)
		span.SetStatus(codes.Error, submitErr.Error())

		retryCount, err := c.queue.IncrementRetry(ctx, action.ID)
		if err != nil {
			log.Errorf("sync coordinator: increment retry of action %s: %s", action.ID, err)
			continue
		}

		if retryCount >= MaxRetries {
			action.RetryCount = retryCount
			c.drop(ctx, action, submitErr)
		}

		if IsConnectivityError(submitErr) {
			// offline again, the rest of the queue would fail the same way
			log.Debugf("sync coordinator: connectivity lost mid drain: %s", submitErr)
			return delivered
		}
	}

	return delivered
}

func (c *Coordinator) drop(ctx context.Context, action Action, cause error) {
	if err := c.queue.Remove(ctx, action.ID); err != nil {
		log.Errorf("sync coordinator: remove dropped action %s: %s", action.ID, err)
		return
	}
	c.metrics.CounterActionsDropped.Inc()
	log.Warnf("sync coordinator: dropping action %s [%s %s] after %d attempts: %s",
		action.ID, action.Method, action.Target, MaxRetries, cause)

	if c.deadLetter == nil {
		return
	}
	if err := c.deadLetter.Record(action, c.clock.Now(), cause.Error()); err != nil {
		log.Errorf("sync coordinator: record dead letter for action %s: %s", action.ID, err)
	}
}
