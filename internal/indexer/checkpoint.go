package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records how far the RPC source has progressed.
type Checkpoint struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	// BlocksEmitted counts blocks with at least one matching log since the first run.
	BlocksEmitted uint64 `json:"blocks_emitted"`
	UpdatedAt     string `json:"updated_at"`
}

// CheckpointStore persists a Checkpoint as a JSON file. A nil or disabled
// store loads nothing and saves nothing.
type CheckpointStore struct {
	path    string
	enabled bool
	current Checkpoint
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if c == nil || !c.enabled {
		return Checkpoint{}, false, nil
	}

	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Checkpoint{}, false, nil
	case err != nil:
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	c.current = cp
	return cp, true, nil
}

// Advance records that every block up to height has been handled, emitting
// blocks of them. The file is replaced atomically.
func (c *CheckpointStore) Advance(height uint64, blocks int) error {
	if c == nil || !c.enabled {
		return nil
	}
	if height < c.current.LastProcessedBlock {
		return fmt.Errorf("checkpoint regression: %d < %d", height, c.current.LastProcessedBlock)
	}

	next := Checkpoint{
		LastProcessedBlock: height,
		BlocksEmitted:      c.current.BlocksEmitted + uint64(blocks),
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	c.current = next
	return nil
}
