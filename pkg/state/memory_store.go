package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. It uses Ref.Identifier() as its deterministic key.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	raw  any
	meta Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (any, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return cloneRaw(record.raw), cloneMeta(record.meta), true, nil
}

// Save stores raw and assigns a fresh snapshot id unless meta carries one.
// The ETag check and the write happen under one lock.
func (s *MemoryStore) Save(_ context.Context, ref Ref, raw any, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[key]
	if err := checkETag(meta.ETag, current.meta, exists); err != nil {
		return Meta{}, err
	}
	saved := stamp(meta, s.now())
	s.records[key] = memoryRecord{raw: cloneRaw(raw), meta: cloneMeta(saved)}
	return saved, nil
}
