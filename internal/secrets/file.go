package secrets

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	fileName = "tokens.json"
	fileMode = 0o600
)

type tokenEntry struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// tokenFile keeps every app's token in one JSON object keyed by app name.
type tokenFile struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func newTokenFile(dir string) *tokenFile {
	return &tokenFile{path: filepath.Join(dir, fileName), now: time.Now}
}

func (f *tokenFile) load(app string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return "", err
	}
	e, ok := entries[app]
	if !ok || e.Token == "" {
		return "", ErrNotFound
	}
	return e.Token, nil
}

func (f *tokenFile) save(app, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return err
	}
	entries[app] = tokenEntry{Token: token, SavedAt: f.now().UTC()}
	return f.write(entries)
}

func (f *tokenFile) forget(app string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := entries[app]; !ok {
		return nil
	}
	delete(entries, app)
	if len(entries) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return f.write(entries)
}

func (*tokenFile) kind() string { return "file" }

// read treats a missing or unparseable file as an empty cache; the next save
// replaces it.
func (f *tokenFile) read() (map[string]tokenEntry, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]tokenEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]tokenEntry{}
	if json.Unmarshal(raw, &entries) != nil {
		return map[string]tokenEntry{}, nil
	}
	return entries, nil
}

// write replaces the file through a temp file so a crash never leaves half a
// cache behind.
func (f *tokenFile) write(entries map[string]tokenEntry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, fileMode); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
