package streak

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMock struct {
	mutex   sync.Mutex
	records map[uuid.UUID]Record

	// GetCalls counts Get invocations, for cache behavior assertions.
	GetCalls int
}

func NewMockRecordsRepo() *repoMock {
	return &repoMock{
		records: make(map[uuid.UUID]Record),
	}
}

func (r *repoMock) Get(_ context.Context, userID uuid.UUID) (*Record, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.GetCalls++
	record, ok := r.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &record, nil
}

func (r *repoMock) ProcessEvent(_ context.Context, userID uuid.UUID, now time.Time) (*Record, Outcome, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	record, ok := r.records[userID]
	if !ok {
		record = NewRecord(userID)
	}
	newRecord, outcome := Transition(record, now)
	r.records[userID] = newRecord
	return &newRecord, outcome, nil
}
