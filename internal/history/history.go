// Package history keeps a local log of wizard runs.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRuns bounds the log; older runs are dropped first.
const maxRuns = 100

// Run is one install or uninstall attempt.
type Run struct {
	ID          string    `json:"id"`
	Command     string    `json:"command"`
	ProjectRoot string    `json:"project_root"`
	DryRun      bool      `json:"dry_run,omitempty"`
	Completed   []string  `json:"completed"`
	Incomplete  []string  `json:"incomplete,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Succeeded reports whether every step completed.
func (r Run) Succeeded() bool {
	return r.Error == "" && len(r.Incomplete) == 0
}

// Store is a JSON file of runs.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store at the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) filePath() string {
	return filepath.Join(s.dir, "history.json")
}

// Append records a run, assigning an ID when it has none.
func (s *Store) Append(run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readUnsafe()
	if err != nil {
		runs = nil // corrupt log, start over
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	runs = append(runs, run)
	if len(runs) > maxRuns {
		runs = runs[len(runs)-maxRuns:]
	}
	return run, s.writeUnsafe(runs)
}

// Recent returns the last n runs for projectRoot, newest first. An empty
// projectRoot matches every project.
func (s *Store) Recent(projectRoot string, n int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readUnsafe()
	if err != nil {
		return nil, err
	}
	var out []Run
	for i := len(runs) - 1; i >= 0 && len(out) < n; i-- {
		if projectRoot == "" || runs[i].ProjectRoot == projectRoot {
			out = append(out, runs[i])
		}
	}
	return out, nil
}

// Clear removes every run.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) readUnsafe() ([]Run, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return runs, nil
}

func (s *Store) writeUnsafe(runs []Run) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	return os.WriteFile(s.filePath(), data, 0o600)
}
