package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Checkpoint records the last completed location per law so an
// interrupted crawl resumes where it stopped instead of refetching the
// whole law. It persists as a small JSON file, written atomically.
type Checkpoint struct {
	path string

	mu   sync.Mutex
	done map[string]string // law ID -> last completed location ID
}

// LoadCheckpoint reads the checkpoint at path, or starts an empty one if
// the file does not exist yet.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	cp := &Checkpoint{path: path, done: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp.done); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// Last returns the last completed location for a law.
func (cp *Checkpoint) Last(lawID string) (string, bool) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	loc, ok := cp.done[lawID]
	return loc, ok
}

// Mark records a completed location and persists the file.
func (cp *Checkpoint) Mark(lawID, locationID string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.done[lawID] = locationID
	return cp.save()
}

// Reset forgets a law's progress.
func (cp *Checkpoint) Reset(lawID string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	delete(cp.done, lawID)
	return cp.save()
}

// save writes via a temp file and rename so a crash mid-write cannot
// truncate the checkpoint.
func (cp *Checkpoint) save() error {
	data, err := json.MarshalIndent(cp.done, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	tmp := cp.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(cp.path), 0o755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, cp.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
