// Package routecache stores computed transit routes so repeated queries skip
// the search.
package routecache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrMiss is returned by Get when no route is cached for the key.
var ErrMiss = errors.New("routecache: miss")

// Entry is a cached route. Unreachable pairs are cached too, with Found unset.
type Entry struct {
	Stations []string `json:"stations,omitempty"`
	Cost     float64  `json:"cost"`
	Found    bool     `json:"found"`
}

// Cache is the storage used by the route endpoint and the route command.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
}

// Key identifies the route between two station IDs.
func Key(fromID, toID string) string {
	return fmt.Sprintf("route:%s:%s", fromID, toID)
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrMiss
	}
	entry.Stations = slices.Clone(entry.Stations)
	return entry, nil
}

func (m *Memory) Set(ctx context.Context, key string, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry.Stations = slices.Clone(entry.Stations)
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Keys returns the cached keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.entries))
}
