package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const deadLetterFileName = "dead_letter.json"

type deadLetterEntry struct {
	Action    Action    `json:"action"`
	DroppedAt time.Time `json:"droppedAt"`
	Reason    string    `json:"reason"`
}

// DeadLetterLog records permanently dropped actions, one JSON object per
// line, so that a dropped workout is at least inspectable afterwards.
type DeadLetterLog struct {
	mutex sync.Mutex
	path  string
}

func NewDeadLetterLog(dataDir string) *DeadLetterLog {
	return &DeadLetterLog{
		path: filepath.Join(dataDir, deadLetterFileName),
	}
}

func (l *DeadLetterLog) Record(action Action, droppedAt time.Time, reason string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	entryJson, err := json.Marshal(deadLetterEntry{
		Action:    action,
		DroppedAt: droppedAt,
		Reason:    reason,
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter entry: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open dead letter log: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := file.Write(append(entryJson, '\n')); err != nil {
		return fmt.Errorf("append dead letter entry: %w", err)
	}
	return nil
}
