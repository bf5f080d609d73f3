package fairauth

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testClock is a manual clock. Tests advance it to drive lockout windows and
// token expiry without sleeping.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
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

// memStore is an in-memory CredentialStore with fault injection. The Redis
// implementation has its own tests; engine tests use this to control every
// storage outcome.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	ids      map[string]string
	revoked  map[string]time.Time

	failFind   error
	failRecord error
	failReset  error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]Account),
		ids:      make(map[string]string),
		revoked:  make(map[string]time.Time),
	}
}

func (s *memStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	s.ids[account.Identifier] = account.ID
	return nil
}

func (s *memStore) FindByIdentifier(_ context.Context, identifier string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind != nil {
		return Account{}, s.failFind
	}
	id, ok := s.ids[identifier]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *memStore) FindByID(_ context.Context, accountID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *memStore) RecordFailure(_ context.Context, accountID string, at time.Time) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRecord != nil {
		return Account{}, s.failRecord
	}
	account, ok := s.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	account.FailedAttempts++
	account.LastAttemptAt = at
	s.accounts[accountID] = account
	return account, nil
}

func (s *memStore) RecordSuccess(_ context.Context, accountID string) error {
	return s.reset(accountID)
}

func (s *memStore) ResetFailures(_ context.Context, accountID string) error {
	s.mu.Lock()
	failReset := s.failReset
	s.mu.Unlock()
	if failReset != nil {
		return failReset
	}
	return s.reset(accountID)
}

func (s *memStore) reset(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	account.FailedAttempts = 0
	account.LastAttemptAt = time.Time{}
	s.accounts[accountID] = account
	return nil
}

func (s *memStore) UpdateSecretHash(_ context.Context, accountID string, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	account.SecretHash = newHash
	s.accounts[accountID] = account
	return nil
}

func (s *memStore) MarkRevoked(_ context.Context, accountID string, at time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[accountID] = at
	return nil
}

func (s *memStore) RevokedAt(_ context.Context, accountID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[accountID], nil
}

func (s *memStore) failedAttempts(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountID].FailedAttempts
}

// testConfig keeps argon2 cost at the floor so scenarios stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.PrivateKey = []byte("test-signing-secret-0123456789ab")
	cfg.Lockout.Threshold = 3
	cfg.Lockout.Duration = time.Minute
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *memStore, *testClock) {
	t.Helper()

	ms := newMemStore()
	clock := newTestClock()

	engine, err := New().
		WithConfig(cfg).
		WithStore(ms).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, ms, clock
}

func seedAccount(t *testing.T, engine *Engine, identifier, secret string, role Role) Account {
	t.Helper()

	account, err := engine.CreateAccount(context.Background(), identifier, secret, role)
	if err != nil {
		t.Fatalf("seed %s: %v", identifier, err)
	}
	return account
}
