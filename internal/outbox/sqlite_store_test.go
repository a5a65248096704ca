package outbox

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "outbox.db")

	store, err := NewSQLiteStore(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	createdAt := time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC)
	actions := []Action{
		NewAction("POST", "/activity/training/start", json.RawMessage(`{"userId":"u1"}`), createdAt),
		NewAction("POST", "/activity/training/finish", json.RawMessage(`{"calories":410}`), createdAt.Add(time.Minute)),
		NewAction("POST", "/streak/event", json.RawMessage(`{"userId":"u1"}`), createdAt.Add(2*time.Minute)),
	}
	actions[0].RetryCount = 1

	require.NoError(t, store.Save(ctx, actions))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range actions {
		assert.Equal(t, actions[i].ID, loaded[i].ID)
		assert.Equal(t, actions[i].Method, loaded[i].Method)
		assert.Equal(t, actions[i].Target, loaded[i].Target)
		assert.JSONEq(t, string(actions[i].Payload), string(loaded[i].Payload))
		assert.Equal(t, actions[i].RetryCount, loaded[i].RetryCount)
		assert.True(t, actions[i].CreatedAt.Equal(loaded[i].CreatedAt))
	}

	// save replaces the whole queue
	require.NoError(t, store.Save(ctx, actions[1:]))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, actions[1].ID, loaded[0].ID)
	assert.Equal(t, actions[2].ID, loaded[1].ID)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "outbox.db")

	store, err := NewSQLiteStore(ctx, dbPath)
	require.NoError(t, err)

	action := NewAction("POST", "/streak/event", json.RawMessage(`{}`), time.Now().UTC())
	require.NoError(t, store.Save(ctx, []Action{action}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, action.ID, loaded[0].ID)
}
