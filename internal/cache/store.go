// Package cache persists raw market chart payloads between analysis
// runs so repeated runs over the same window do not refetch unchanged
// history.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Key identifies one cached market chart.
type Key struct {
	CoinID     string
	VsCurrency string
	Days       int
}

// String renders the key in the <coin>_<vs>_<days>days form used for
// file names and Redis keys.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%ddays", k.CoinID, k.VsCurrency, k.Days)
}

// ChartStore persists raw chart payloads by key. Get reports a miss
// with found=false and a nil error; errors are reserved for failing
// backends.
type ChartStore interface {
	Get(ctx context.Context, key Key) (data []byte, found bool, err error)
	Set(ctx context.Context, key Key, data []byte) error
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// AddHit records a cache hit.
func (s *Stats) AddHit() {
	s.mu.Lock()
	s.Hits++
	s.mu.Unlock()
}

// AddMiss records a cache miss.
func (s *Stats) AddMiss() {
	s.mu.Lock()
	s.Misses++
	s.mu.Unlock()
}

// AddSet records a cache write.
func (s *Stats) AddSet() {
	s.mu.Lock()
	s.Sets++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Hits:   s.Hits,
		Misses: s.Misses,
		Sets:   s.Sets,
	}
}

// HitRate returns the hit percentage over all lookups, or 0 before the
// first lookup.
func (s *Stats) HitRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// FileStore keeps one JSON file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed and returns a
// store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the cached payload for key, reporting a miss when the file
// does not exist.
func (s *FileStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached chart %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the payload for key, replacing any previous version.
func (s *FileStore) Set(_ context.Context, key Key, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cached chart %s: %w", key, err)
	}
	return nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, key.String()+".json")
}

// MemoryStore keeps payloads in process memory. It is useful for tests
// and one-shot runs that should not touch the filesystem.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns the payload stored for key.
func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key.String()]
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a copy of the payload for key.
func (s *MemoryStore) Set(_ context.Context, key Key, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.data[key.String()] = buf
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored payloads.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var (
	_ ChartStore = (*FileStore)(nil)
	_ ChartStore = (*MemoryStore)(nil)
)
