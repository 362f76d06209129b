package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/hupe1980/agenthost/core"
)

// ErrETagConflict is returned by Memory.Write when a change carries a
// concrete ETag that no longer matches the stored item.
var ErrETagConflict = fmt.Errorf("storage: etag conflict")

// Memory is a volatile core.Storage implementation storing items in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo hosts. Items are deep-copied on both read and
// write so callers can never mutate internal state through shared maps.
//
// Writes are last-write-wins unless the incoming item carries a concrete
// ETag, in which case a mismatch fails with ErrETagConflict. The wildcard
// ETag "*" (or an empty one) always wins.
type Memory struct {
	mu    sync.RWMutex
	items map[string]core.StoreItem
	etag  uint64
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]core.StoreItem)}
}

// Read returns deep copies of the items stored under the given keys. Absent
// keys are missing from the result.
func (m *Memory) Read(_ context.Context, keys []string) (map[string]core.StoreItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]core.StoreItem, len(keys))
	for _, key := range keys {
		if item, ok := m.items[key]; ok {
			result[key] = item.Clone()
		}
	}
	return result, nil
}

// Write upserts the given changes. Each stored item receives a fresh ETag.
func (m *Memory) Write(_ context.Context, changes map[string]core.StoreItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, item := range changes {
		if existing, ok := m.items[key]; ok {
			if item.ETag != "" && item.ETag != core.ETagAny && item.ETag != existing.ETag {
				return fmt.Errorf("%w: key %q has etag %q, write carried %q", ErrETagConflict, key, existing.ETag, item.ETag)
			}
		}
		stored := item.Clone()
		m.etag++
		stored.ETag = strconv.FormatUint(m.etag, 10)
		m.items[key] = stored
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (m *Memory) Delete(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}
