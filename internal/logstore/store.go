// internal/logstore/store.go
package logstore

import (
	"sync"

	"serial-terminal/internal/model"
)

// Capacity clamp bounds for the in-memory log
const (
	MinCapacity     = 100
	MaxCapacity     = 100000
	DefaultCapacity = 1000
)

// Store is a bounded, ordered, append-only sequence of log entries with
// FIFO eviction. Entries are immutable once appended; readers get
// snapshot copies. The size never exceeds the capacity after any
// mutation completes.
type Store struct {
	mu       sync.RWMutex
	buf      []model.LogEntry // ring buffer, len(buf) == capacity
	head     int              // index of the oldest entry
	count    int
	nextID   uint64
	evicted  uint64
}

// ClampCapacity forces a requested capacity into the supported range
func ClampCapacity(n int) int {
	if n < MinCapacity {
		return MinCapacity
	}
	if n > MaxCapacity {
		return MaxCapacity
	}
	return n
}

// New creates a store with the given capacity, clamped to
// [MinCapacity, MaxCapacity].
func New(capacity int) *Store {
	return &Store{
		buf:    make([]model.LogEntry, ClampCapacity(capacity)),
		nextID: 1,
	}
}

// Append stamps the entry with the next sequence id, stores it, and
// evicts the oldest entry if the store is full. Returns the stored entry.
func (s *Store) Append(entry model.LogEntry) model.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++

	if s.count == len(s.buf) {
		// full: overwrite the oldest slot
		s.buf[s.head] = entry
		s.head = (s.head + 1) % len(s.buf)
		s.evicted++
	} else {
		s.buf[(s.head+s.count)%len(s.buf)] = entry
		s.count++
	}
	return entry
}

// Snapshot returns a copy of all entries in insertion order
func (s *Store) Snapshot() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LogEntry, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Clear empties the store and resets the eviction counter. Sequence ids
// keep counting up so entry identity stays unique across clears.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.head = 0
	s.count = 0
	s.evicted = 0
	for i := range s.buf {
		s.buf[i] = model.LogEntry{}
	}
}

// Resize changes the capacity, evicting the oldest entries immediately
// when the new capacity is below the current size. Returns the clamped
// capacity actually applied.
func (s *Store) Resize(capacity int) int {
	capacity = ClampCapacity(capacity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if capacity == len(s.buf) {
		return capacity
	}

	keep := s.count
	if keep > capacity {
		dropped := keep - capacity
		s.head = (s.head + dropped) % len(s.buf)
		s.count = capacity
		s.evicted += uint64(dropped)
		keep = capacity
	}

	next := make([]model.LogEntry, capacity)
	for i := 0; i < keep; i++ {
		next[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	s.buf = next
	s.head = 0
	return capacity
}

// Len returns the number of stored entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Capacity returns the current capacity
func (s *Store) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

// Evicted returns the number of entries dropped since the last Clear
func (s *Store) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
