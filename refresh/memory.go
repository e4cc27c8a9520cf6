package refresh

import (
	"context"
	"sync"
	"time"
)

// MemoryRecordStore is an in-process RecordStore for tests and single-node
// setups. Records are retained until process exit; expiry is enforced by
// the registry on read.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]*Record)}
}

func (s *MemoryRecordStore) Save(_ context.Context, record *Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *MemoryRecordStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *MemoryRecordStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.Revoked = true
	return nil
}
