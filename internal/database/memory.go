package database

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. It counts writes so callers
// can observe when a save was skipped.
type MemoryBackend struct {
	mu     sync.Mutex
	docs   map[Collection][]byte
	writes map[Collection]int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:   make(map[Collection][]byte),
		writes: make(map[Collection]int),
	}
}

func (b *MemoryBackend) Read(_ context.Context, c Collection) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.docs[c]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Write(_ context.Context, c Collection, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[c] = append([]byte(nil), data...)
	b.writes[c]++
	return nil
}

// Put stores raw bytes without counting a write.
func (b *MemoryBackend) Put(c Collection, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[c] = append([]byte(nil), data...)
}

func (b *MemoryBackend) Writes(c Collection) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes[c]
}

func (b *MemoryBackend) Close() error {
	return nil
}
