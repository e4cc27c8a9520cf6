package authgate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/onetime"
	"github.com/MrEthical07/authgate/refresh"
	"github.com/MrEthical07/authgate/token"
)

// ---------------------------------------------------------------------------
// Mock account store
// ---------------------------------------------------------------------------

type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byEmail  map[string]string

	createErr error
	updateErr error

	createCalls     int
	getByEmailCalls int
	getByIDCalls    int
	updateCalls     int
	linkCalls       int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
	}
}

func (m *mockAccountStore) Create(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byEmail[account.Email]; exists {
		return ErrEmailAlreadyUsed
	}

	m.accounts[account.ID] = account.Clone()
	m.byEmail[account.Email] = account.ID
	return nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return m.accounts[id].Clone(), nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++

	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (m *mockAccountStore) Update(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	if m.updateErr != nil {
		return m.updateErr
	}

	stored, ok := m.accounts[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return ErrConflict
	}

	next := account.Clone()
	next.Version++
	m.accounts[account.ID] = next
	account.Version = next.Version
	return nil
}

func (m *mockAccountStore) LinkProvider(_ context.Context, accountID, provider, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkCalls++

	stored, ok := m.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	if stored.Providers == nil {
		stored.Providers = make(map[string]string)
	}
	stored.Providers[provider] = providerID
	stored.Version++
	return nil
}

// get returns the stored record for direct assertions.
func (m *mockAccountStore) get(id string) *Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Clone()
}

// put seeds a record directly, bypassing Create.
func (m *mockAccountStore) put(account *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account.Clone()
	m.byEmail[account.Email] = account.ID
}

// ---------------------------------------------------------------------------
// Mock hasher and mailer
// ---------------------------------------------------------------------------

// mockHasher avoids Argon2 cost in engine tests and counts Verify calls so
// tests can assert that locked accounts never reach hash work.
type mockHasher struct {
	mu          sync.Mutex
	hashCalls   int
	verifyCalls int
}

func (h *mockHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashCalls++
	return "h:" + plain, nil
}

func (h *mockHasher) Verify(plain, digest string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifyCalls++
	return digest == "h:"+plain, nil
}

func (h *mockHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

type sentMail struct {
	email string
	link  string
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

func (m *recordingMailer) SendVerification(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, sentMail{email: email, link: link})
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{email: email, link: link})
	return nil
}

func (m *recordingMailer) lastVerification(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.verifications) == 0 {
		t.Fatal("expected a verification mail")
	}
	return m.verifications[len(m.verifications)-1]
}

func (m *recordingMailer) lastReset(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resets) == 0 {
		t.Fatal("expected a reset mail")
	}
	return m.resets[len(m.resets)-1]
}

func (m *recordingMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	_, tok, ok := strings.Cut(link, "token=")
	if !ok || tok == "" {
		t.Fatalf("no token in link %q", link)
	}
	return tok
}

// ---------------------------------------------------------------------------
// Engine fixture
// ---------------------------------------------------------------------------

// testClock makes engine time controllable without touching real wall time.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testEngine struct {
	engine *Engine
	store  *mockAccountStore
	hasher *mockHasher
	mailer *recordingMailer
	clock  *testClock
}

func newTestEngine(t *testing.T, opts ...func(*Config)) *testEngine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.RateLimit.Enabled = false
	cfg.Metrics.Enabled = true
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	codec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		t.Fatalf("codec init failed: %v", err)
	}

	registry, err := refresh.NewRegistry(codec, refresh.NewMemoryRecordStore(), cfg.Token.RefreshTTL)
	if err != nil {
		t.Fatalf("registry init failed: %v", err)
	}

	store := newMockAccountStore()
	hasher := &mockHasher{}
	mailer := &recordingMailer{}
	clock := newTestClock()

	engine := newEngine(cfg, engineDeps{
		codec:    codec,
		registry: registry,
		onetime:  onetime.NewManager(onetime.NewMemoryRecordStore()),
		accounts: store,
		hasher:   hasher,
		mailer:   mailer,
		audit:    newAuditDispatcher(cfg.Audit, nil),
		metrics:  NewMetrics(cfg.Metrics),
	})
	engine.now = clock.Now
	t.Cleanup(engine.Close)

	return &testEngine{
		engine: engine,
		store:  store,
		hasher: hasher,
		mailer: mailer,
		clock:  clock,
	}
}

// seedAccount stores a verified, enabled account with the given password.
func (te *testEngine) seedAccount(t *testing.T, id, email, plainPassword string) *Account {
	t.Helper()

	account := &Account{
		ID:           id,
		Email:        email,
		PasswordHash: "h:" + plainPassword,
		Roles:        []string{"user"},
		Verified:     true,
		Enabled:      true,
		CreatedAt:    te.clock.Now().Unix(),
		Version:      1,
	}
	te.store.put(account)
	return account
}
