package accountstore

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/authgate"
)

// Memory is an in-process AccountStore. Reads return deep copies, so
// callers can never mutate stored state without going through Update.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*authgate.Account
	byEmail map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*authgate.Account),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Memory) Create(_ context.Context, account *authgate.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(account.Email)
	if _, exists := s.byEmail[key]; exists {
		return authgate.ErrEmailAlreadyUsed
	}

	stored := account.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.byID[stored.ID] = stored
	s.byEmail[key] = stored.ID
	return nil
}

func (s *Memory) GetByEmail(_ context.Context, email string) (*authgate.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, authgate.ErrAccountNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Memory) GetByID(_ context.Context, id string) (*authgate.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, authgate.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Update commits account only when its Version matches the stored record;
// the stored version then advances by one.
func (s *Memory) Update(_ context.Context, account *authgate.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[account.ID]
	if !ok {
		return authgate.ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return authgate.ErrConflict
	}

	next := account.Clone()
	next.Version = account.Version + 1
	s.byID[account.ID] = next
	return nil
}

func (s *Memory) LinkProvider(_ context.Context, accountID, provider, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[accountID]
	if !ok {
		return authgate.ErrAccountNotFound
	}
	if account.Providers == nil {
		account.Providers = make(map[string]string)
	}
	account.Providers[provider] = providerID
	return nil
}
