package onetime

import (
	"context"
	"sync"
	"time"
)

// MemoryRecordStore is an in-process RecordStore for tests and
// single-node setups. Expired entries are reaped lazily on Consume.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	record    Record
	deadline  time.Time
	hasExpiry bool
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryRecordStore) Save(_ context.Context, token string, record *Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{record: *record}
	if ttl > 0 {
		entry.deadline = s.now().Add(ttl)
		entry.hasExpiry = true
	}
	s.records[token] = entry
	return nil
}

func (s *MemoryRecordStore) Consume(_ context.Context, token string, expected Purpose) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[token]
	if !ok {
		return nil, ErrInvalid
	}
	delete(s.records, token)

	if entry.hasExpiry && s.now().After(entry.deadline) {
		return nil, ErrInvalid
	}
	if s.now().Unix() > entry.record.ExpiresAt {
		return nil, ErrInvalid
	}
	if entry.record.Purpose != expected {
		return nil, ErrInvalid
	}

	record := entry.record
	return &record, nil
}
