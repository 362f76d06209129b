package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agenthost/core"
)

// SpyStorage wraps another storage and counts operations, so tests can assert
// how often the state layer actually hit the backend.
type SpyStorage struct {
	Inner core.Storage

	mu      sync.Mutex
	reads   int
	writes  int
	deletes int

	// LastWrite holds the changes of the most recent Write call.
	LastWrite map[string]core.StoreItem
}

// NewSpyStorage wraps inner with operation counters.
func NewSpyStorage(inner core.Storage) *SpyStorage {
	return &SpyStorage{Inner: inner}
}

func (s *SpyStorage) Read(ctx context.Context, keys []string) (map[string]core.StoreItem, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.Inner.Read(ctx, keys)
}

func (s *SpyStorage) Write(ctx context.Context, changes map[string]core.StoreItem) error {
	s.mu.Lock()
	s.writes++
	s.LastWrite = changes
	s.mu.Unlock()
	return s.Inner.Write(ctx, changes)
}

func (s *SpyStorage) Delete(ctx context.Context, keys []string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.Inner.Delete(ctx, keys)
}

// Reads returns the number of Read calls so far.
func (s *SpyStorage) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Writes returns the number of Write calls so far.
func (s *SpyStorage) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Deletes returns the number of Delete calls so far.
func (s *SpyStorage) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}
