package outbox

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stridefit/backend/internal/clock"
	"github.com/stridefit/backend/internal/telemetry/metrics"
)

func newTestCoordinator(t *testing.T, submitter Submitter, online onlineChecker) (*Coordinator, *Queue, string) {
	t.Helper()
	dataDir := t.TempDir()

	store, err := NewFileStore(dataDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	testClock := clock.NewTestClock(time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC))
	queue, err := NewQueue(context.Background(), store, testClock)
	require.NoError(t, err)

	coordinator := NewCoordinator(
		queue, submitter, online,
		NewDeadLetterLog(dataDir),
		testClock,
		metrics.NewTestManager(),
	)
	return coordinator, queue, dataDir
}

func TestCoordinator_DrainDeliversFIFO(t *testing.T) {
	ctx := context.Background()
	submitter := newSubmitterMock()
	coordinator, queue, _ := newTestCoordinator(t, submitter, newOnlineMock(true))

	for i, target := range []string{"/a", "/b", "/c"} {
		_, _, err := queue.Enqueue(ctx, "POST", target, json.RawMessage(`{}`))
		require.NoError(t, err, "enqueue %d", i)
	}

	delivered := coordinator.Drain(ctx)

	assert.Equal(t, 3, delivered)
	assert.Equal(t, 0, queue.PendingCount())
	require.Len(t, submitter.Submitted, 3)
	assert.Equal(t, "/a", submitter.Submitted[0].Target)
	assert.Equal(t, "/b", submitter.Submitted[1].Target)
	assert.Equal(t, "/c", submitter.Submitted[2].Target)
	assert.InDelta(t, 3, testutil.ToFloat64(coordinator.metrics.CounterActionsDelivered), 0.001)
}

func TestCoordinator_DrainStopsWhenConnectivityLost(t *testing.T) {
	ctx := context.Background()
	// first action fails with a network error, the rest must not be attempted
	submitter := newSubmitterMock(ErrOffline)
	coordinator, queue, _ := newTestCoordinator(t, submitter, newOnlineMock(true))

	first, _, err := queue.Enqueue(ctx, "POST", "/a", nil)
	require.NoError(t, err)
	_, _, err = queue.Enqueue(ctx, "POST", "/b", nil)
	require.NoError(t, err)

	delivered := coordinator.Drain(ctx)

	assert.Equal(t, 0, delivered)
	assert.Equal(t, 1, submitter.SubmitCalls())
	assert.Equal(t, 2, queue.PendingCount())

	snapshot := queue.Snapshot()
	assert.Equal(t, first.ID, snapshot[0].ID)
	assert.Equal(t, 1, snapshot[0].RetryCount)
	assert.Equal(t, 0, snapshot[1].RetryCount)
}

func TestCoordinator_DropAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	apiTimeout := context.DeadlineExceeded
	submitter := newSubmitterMock(apiTimeout)
	coordinator, queue, dataDir := newTestCoordinator(t, submitter, newOnlineMock(true))

	action, _, err := queue.Enqueue(ctx, "POST", "/streak/event", json.RawMessage(`{"userId":"u1"}`))
	require.NoError(t, err)

	for pass := 1; pass < MaxRetries; pass++ {
		coordinator.Drain(ctx)
		assert.Equal(t, 1, queue.PendingCount(), "still pending after pass %d", pass)
	}

	coordinator.Drain(ctx)
	assert.Equal(t, 0, queue.PendingCount(), "dropped after exactly %d failed attempts", MaxRetries)
	assert.InDelta(t, 1, testutil.ToFloat64(coordinator.metrics.CounterActionsDropped), 0.001)

	// the dropped action lands in the dead letter log
	file, err := os.Open(filepath.Join(dataDir, deadLetterFileName))
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())
	var entry deadLetterEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, action.ID, entry.Action.ID)
	assert.Equal(t, MaxRetries, entry.Action.RetryCount)
	assert.False(t, scanner.Scan(), "exactly one dead letter entry")
}

func TestCoordinator_SingleFlight(t *testing.T) {
	ctx := context.Background()
	submitter := newSubmitterMock()
	coordinator, _, _ := newTestCoordinator(t, submitter, newOnlineMock(true))

	coordinator.busy.Store(true)
	assert.Equal(t, 0, coordinator.Drain(ctx), "second pass refuses to start")
	coordinator.busy.Store(false)
}

func TestCoordinator_RunDrainsOnReconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	online := newOnlineMock(false)
	submitter := newSubmitterMock()
	coordinator, queue, _ := newTestCoordinator(t, submitter, online)
	coordinator.settleDelay = 10 * time.Millisecond

	_, _, err := queue.Enqueue(ctx, "POST", "/streak/event", json.RawMessage(`{}`))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		coordinator.Run(ctx)
	}()

	online.online.Store(true)
	coordinator.NotifyConnectivity(true)

	require.Eventually(t, func() bool {
		return queue.PendingCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestCoordinator_RunOfflineCancelsSettle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submitter := newSubmitterMock()
	online := newOnlineMock(false)
	coordinator, queue, _ := newTestCoordinator(t, submitter, online)
	coordinator.settleDelay = 50 * time.Millisecond

	_, _, err := queue.Enqueue(ctx, "POST", "/streak/event", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		coordinator.Run(ctx)
	}()

	// connectivity flaps back offline before the settle delay elapses
	coordinator.NotifyConnectivity(true)
	time.Sleep(10 * time.Millisecond)
	coordinator.NotifyConnectivity(false)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, submitter.SubmitCalls(), "no drain while the link is flapping")
	assert.Equal(t, 1, queue.PendingCount())

	cancel()
	<-done
}
