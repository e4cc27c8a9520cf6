package accountstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/authgate"
)

func newAccount(id, email string) *authgate.Account {
	return &authgate.Account{
		ID:      id,
		Email:   email,
		Roles:   []string{"user"},
		Version: 1,
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "A@Example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Lookup is case-insensitive.
	got, err := store.GetByEmail(ctx, "a@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "a1" {
		t.Fatalf("got id %q", got.ID)
	}

	if _, err := store.GetByID(ctx, "a1"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, authgate.ErrAccountNotFound) {
		t.Fatalf("GetByID(missing) err = %v", err)
	}
}

func TestMemoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "a@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, newAccount("a2", "A@EXAMPLE.com"))
	if !errors.Is(err, authgate.ErrEmailAlreadyUsed) {
		t.Fatalf("duplicate Create err = %v, want ErrEmailAlreadyUsed", err)
	}
}

func TestMemoryUpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "a@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	current, _ := store.GetByID(ctx, "a1")
	current.FailedAttempts = 1
	if err := store.Update(ctx, current); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Stale version loses.
	stale := current.Clone()
	stale.FailedAttempts = 99
	if err := store.Update(ctx, stale); !errors.Is(err, authgate.ErrConflict) {
		t.Fatalf("stale Update err = %v, want ErrConflict", err)
	}

	fresh, _ := store.GetByID(ctx, "a1")
	if fresh.FailedAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", fresh.FailedAttempts)
	}
	if fresh.Version != current.Version+1 {
		t.Fatalf("version = %d, want %d", fresh.Version, current.Version+1)
	}
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "a@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, _ := store.GetByID(ctx, "a1")
	got.FailedAttempts = 42
	got.Roles[0] = "mutated"

	fresh, _ := store.GetByID(ctx, "a1")
	if fresh.FailedAttempts != 0 || fresh.Roles[0] != "user" {
		t.Fatal("stored account mutated through a read copy")
	}
}

func TestMemoryLinkProvider(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "a@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.LinkProvider(ctx, "a1", "google", "g-123"); err != nil {
		t.Fatalf("LinkProvider: %v", err)
	}
	got, _ := store.GetByID(ctx, "a1")
	if got.Providers["google"] != "g-123" {
		t.Fatalf("providers = %v", got.Providers)
	}

	if err := store.LinkProvider(ctx, "missing", "google", "g-123"); !errors.Is(err, authgate.ErrAccountNotFound) {
		t.Fatalf("LinkProvider(missing) err = %v", err)
	}
}

func TestMemoryConcurrentUpdateSingleWinnerPerVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Create(ctx, newAccount("a1", "a@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	base, _ := store.GetByID(ctx, "a1")

	const workers = 8
	wins := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			candidate := base.Clone()
			candidate.FailedAttempts = n
			if err := store.Update(ctx, candidate); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("updates against one version won %d times, want 1", wins)
	}
}
