package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const queueFileName = "outbox-queue.json"

// FileStore keeps the queue as a single JSON file in the agent data dir.
// Save goes through a temp file plus rename, so a crash mid-write leaves
// either the old queue or the new one, never a torn file.
type FileStore struct {
	path string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		return nil, errors.New("data dir cannot be empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dataDir, queueFileName),
	}, nil
}

func (s *FileStore) Load(_ context.Context) ([]Action, error) {
	queueBytes, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Action{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}

	var actions []Action
	if err := json.Unmarshal(queueBytes, &actions); err != nil {
		// a corrupt queue file is treated as empty rather than bricking
		// the agent; the damage is logged and the file will be rewritten
		// on the next save
		log.Errorf("queue file %s corrupt, starting with empty queue: %s", s.path, err)
		return []Action{}, nil
	}
	return actions, nil
}

func (s *FileStore) Save(_ context.Context, actions []Action) error {
	queueBytes, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, queueBytes, 0o600); err != nil {
		return fmt.Errorf("write queue temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename queue temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
