package outbox

import (
	"context"
	"sync"
	"sync/atomic"
)

// submitterMock replays a scripted list of outcomes, then keeps returning
// the last one. Records every submitted action.
type submitterMock struct {
	mutex     sync.Mutex
	outcomes  []error
	Submitted []Action
}

func newSubmitterMock(outcomes ...error) *submitterMock {
	return &submitterMock{outcomes: outcomes}
}

func (m *submitterMock) Submit(_ context.Context, action Action) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Submitted = append(m.Submitted, action)
	if len(m.outcomes) == 0 {
		return nil
	}
	outcome := m.outcomes[0]
	if len(m.outcomes) > 1 {
		m.outcomes = m.outcomes[1:]
	}
	return outcome
}

func (m *submitterMock) SubmitCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.Submitted)
}

type onlineMock struct {
	online atomic.Bool
}

func newOnlineMock(online bool) *onlineMock {
	m := &onlineMock{}
	m.online.Store(online)
	return m
}

func (m *onlineMock) Online() bool {
	return m.online.Load()
}
