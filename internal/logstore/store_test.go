package logstore

import (
	"fmt"
	"testing"

	"serial-terminal/internal/model"
)

func entry(text string) model.LogEntry {
	return model.LogEntry{
		Direction:   model.DirectionReceived,
		Data:        []byte(text),
		DisplayText: text,
	}
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	s := New(100)
	var last uint64
	for i := 0; i < 10; i++ {
		e := s.Append(entry(fmt.Sprintf("e%d", i)))
		if e.ID <= last {
			t.Fatalf("ids must be monotonic: %d after %d", e.ID, last)
		}
		last = e.ID
	}
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	s := New(100)
	capacity := s.Capacity()

	for i := 0; i < capacity+1; i++ {
		s.Append(entry(fmt.Sprintf("e%d", i)))
	}

	if s.Len() != capacity {
		t.Fatalf("size = %d, want exactly %d", s.Len(), capacity)
	}
	snap := s.Snapshot()
	if snap[0].ID != 2 {
		t.Fatalf("oldest entry must be evicted first, head id = %d", snap[0].ID)
	}
	if snap[len(snap)-1].ID != uint64(capacity+1) {
		t.Fatalf("tail id = %d", snap[len(snap)-1].ID)
	}
	if s.Evicted() != 1 {
		t.Fatalf("evicted = %d, want 1", s.Evicted())
	}
}

func TestSnapshotOrderAndIsolation(t *testing.T) {
	s := New(100)
	for i := 0; i < 5; i++ {
		s.Append(entry(fmt.Sprintf("e%d", i)))
	}
	snap := s.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].ID <= snap[i-1].ID {
			t.Fatal("snapshot not in insertion order")
		}
	}
	// Appends after the snapshot must not change the view already taken
	s.Append(entry("later"))
	if len(snap) != 5 {
		t.Fatal("snapshot must be isolated from later appends")
	}
}

func TestClearResetsEvictionCounterNotIDs(t *testing.T) {
	s := New(100)
	for i := 0; i < s.Capacity()+5; i++ {
		s.Append(entry("x"))
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("store not empty after clear: %d", s.Len())
	}
	if s.Evicted() != 0 {
		t.Fatal("eviction counter must reset on clear")
	}
	e := s.Append(entry("y"))
	if e.ID <= uint64(s.Capacity()) {
		t.Fatalf("sequence ids must keep counting after clear, got %d", e.ID)
	}
}

func TestResizeBelowSizeEvictsOldest(t *testing.T) {
	s := New(500)
	for i := 0; i < 300; i++ {
		s.Append(entry(fmt.Sprintf("e%d", i)))
	}
	applied := s.Resize(100)
	if applied != 100 {
		t.Fatalf("applied capacity = %d", applied)
	}
	if s.Len() != 100 {
		t.Fatalf("size after shrink = %d", s.Len())
	}
	snap := s.Snapshot()
	if snap[0].ID != 201 || snap[99].ID != 300 {
		t.Fatalf("shrink must keep the newest entries, got ids %d..%d", snap[0].ID, snap[99].ID)
	}
}

func TestResizeGrowKeepsEntries(t *testing.T) {
	s := New(100)
	for i := 0; i < 100; i++ {
		s.Append(entry(fmt.Sprintf("e%d", i)))
	}
	s.Resize(200)
	if s.Len() != 100 || s.Capacity() != 200 {
		t.Fatalf("len=%d cap=%d", s.Len(), s.Capacity())
	}
	if s.Snapshot()[0].ID != 1 {
		t.Fatal("grow must not drop entries")
	}
}

func TestCapacityClamp(t *testing.T) {
	if got := New(1).Capacity(); got != MinCapacity {
		t.Fatalf("capacity = %d, want %d", got, MinCapacity)
	}
	if got := New(10_000_000).Capacity(); got != MaxCapacity {
		t.Fatalf("capacity = %d, want %d", got, MaxCapacity)
	}
	if got := ClampCapacity(5000); got != 5000 {
		t.Fatalf("in-range capacity must pass through, got %d", got)
	}
}
