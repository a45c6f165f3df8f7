package db

import (
	"context"
	"sync"
)

// MemorySequenceAllocator is an in-process SequenceAllocator for unit
// tests and local development.
type MemorySequenceAllocator struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemorySequenceAllocator returns an allocator with every sequence
// starting at zero.
func NewMemorySequenceAllocator() *MemorySequenceAllocator {
	return &MemorySequenceAllocator{values: make(map[string]int64)}
}

var _ SequenceAllocator = (*MemorySequenceAllocator)(nil)

func (a *MemorySequenceAllocator) Next(_ context.Context, name string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[name]++
	return a.values[name], nil
}
