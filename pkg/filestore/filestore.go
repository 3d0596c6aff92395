// Package filestore is the fallback persistence layer: one JSON array per
// collection key, written to a data directory when the filesystem allows it
// and held in memory otherwise (read-only deployments). The mode is picked
// once at construction and the instance is injected into whatever service
// needs a secondary store.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
)

// Store is a key-value store of JSON arrays.
type Store struct {
	dir     string
	useFile bool

	mu  sync.RWMutex
	mem map[string]json.RawMessage
}

// New probes dataDir for writability and returns a file-backed store when
// possible, an in-memory store otherwise. In memory mode existing files are
// still read once as a seed, so a read-only data directory keeps serving.
func New(dataDir string) *Store {
	s := &Store{dir: dataDir, mem: make(map[string]json.RawMessage)}

	if err := os.MkdirAll(dataDir, 0o755); err == nil {
		probe := filepath.Join(dataDir, ".write-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err == nil {
			os.Remove(probe)
			s.useFile = true
		}
	}

	if !s.useFile {
		pkglogger.Warn(context.Background(), "data dir not writable, using memory storage", "dir", dataDir)
		s.seedFromFiles()
	}
	return s
}

// NewMemory returns a purely in-memory store, used in tests and as an
// explicit fallback when no data directory is configured.
func NewMemory() *Store {
	return &Store{mem: make(map[string]json.RawMessage)}
}

// Get unmarshals the array stored under key into dest. A missing key yields
// an empty array, not an error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	if s.useFile {
		data, err := os.ReadFile(s.path(key))
		if os.IsNotExist(err) {
			return json.Unmarshal([]byte("[]"), dest)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		return json.Unmarshal(data, dest)
	}

	s.mu.RLock()
	raw, ok := s.mem[key]
	s.mu.RUnlock()
	if !ok {
		raw = json.RawMessage("[]")
	}
	return json.Unmarshal(raw, dest)
}

// Set overwrites the array stored under key with value.
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if s.useFile {
		tmp := s.path(key) + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return os.Rename(tmp, s.path(key))
	}

	s.mu.Lock()
	s.mem[key] = json.RawMessage(data)
	s.mu.Unlock()
	return nil
}

// Count returns the number of elements stored under key.
func (s *Store) Count(ctx context.Context, key string) (int, error) {
	var items []json.RawMessage
	if err := s.Get(ctx, key, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// seedFromFiles loads whatever JSON files already exist in the data
// directory into memory so a read-only deployment starts non-empty.
func (s *Store) seedFromFiles() {
	if s.dir == "" {
		return
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var check []json.RawMessage
		if err := json.Unmarshal(data, &check); err != nil {
			continue
		}
		key := e.Name()[:len(e.Name())-len(".json")]
		s.mem[key] = json.RawMessage(data)
		pkglogger.Info(context.Background(), "seeded memory storage", "key", key, "count", len(check))
	}
}
