package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agrofair/fairauth"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s, err := New(client, "fa-test")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return s, mr
}

func seedAccount(t *testing.T, s *Store, id, identifier string) fairauth.Account {
	t.Helper()

	account := fairauth.Account{
		ID:         id,
		Identifier: identifier,
		SecretHash: "$argon2id$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Role:       fairauth.RoleUser,
	}
	if err := s.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("seed %s: %v", identifier, err)
	}
	return account
}

func TestCreateAndFind(t *testing.T) {
	s, _ := newTestStore(t)
	seeded := seedAccount(t, s, "acct-1", "alice@example.com")

	ctx := context.Background()

	byIdent, err := s.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by identifier: %v", err)
	}
	if byIdent.ID != seeded.ID || byIdent.SecretHash != seeded.SecretHash || byIdent.Role != fairauth.RoleUser {
		t.Fatalf("mismatched account: %+v", byIdent)
	}
	if byIdent.FailedAttempts != 0 || !byIdent.LastAttemptAt.IsZero() {
		t.Fatalf("fresh account has bookkeeping: %+v", byIdent)
	}

	byID, err := s.FindByID(ctx, "acct-1")
	if err != nil {
		t.Fatalf("find by ID: %v", err)
	}
	if byID.Identifier != "alice@example.com" {
		t.Fatalf("identifier = %q", byID.Identifier)
	}
}

func TestCreateAccount_DuplicateIdentifier(t *testing.T) {
	s, _ := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	err := s.CreateAccount(context.Background(), fairauth.Account{
		ID:         "acct-2",
		Identifier: "alice@example.com",
		SecretHash: "x-hash",
		Role:       fairauth.RoleUser,
	})
	if !errors.Is(err, ErrIdentifierTaken) {
		t.Fatalf("expected ErrIdentifierTaken, got %v", err)
	}

	// The original row is untouched.
	account, err := s.FindByIdentifier(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if account.ID != "acct-1" {
		t.Fatalf("identifier now points at %q", account.ID)
	}
}

func TestFind_Unknown(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.FindByIdentifier(context.Background(), "nobody@example.com"); !errors.Is(err, fairauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := s.FindByID(context.Background(), "acct-missing"); !errors.Is(err, fairauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRecordFailure_IncrementsAndReturnsAccount(t *testing.T) {
	s, _ := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	updated, err := s.RecordFailure(ctx, "acct-1", at)
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if updated.FailedAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", updated.FailedAttempts)
	}
	if !updated.LastAttemptAt.Equal(at) {
		t.Fatalf("last attempt = %v, want %v", updated.LastAttemptAt, at)
	}
	if updated.Identifier != "alice@example.com" || updated.Role != fairauth.RoleUser {
		t.Fatalf("account fields lost: %+v", updated)
	}

	// Persisted, not just returned.
	stored, _ := s.FindByID(ctx, "acct-1")
	if stored.FailedAttempts != 1 || !stored.LastAttemptAt.Equal(at) {
		t.Fatalf("stored bookkeeping = %+v", stored)
	}
}

func TestRecordFailure_UnknownAccount(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.RecordFailure(context.Background(), "acct-missing", time.Now())
	if !errors.Is(err, fairauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRecordFailure_ConcurrentIncrementsAllLand(t *testing.T) {
	s, _ := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	const attempts = 20
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.RecordFailure(context.Background(), "acct-1", time.Now()); err != nil {
				t.Errorf("record failure: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := s.FindByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.FailedAttempts != attempts {
		t.Fatalf("failed attempts = %d, want %d (lost increments)", stored.FailedAttempts, attempts)
	}
}

func TestRecordSuccess_ClearsBookkeeping(t *testing.T) {
	s, _ := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.RecordFailure(ctx, "acct-1", time.Now())
	}

	if err := s.RecordSuccess(ctx, "acct-1"); err != nil {
		t.Fatalf("record success: %v", err)
	}

	stored, _ := s.FindByID(ctx, "acct-1")
	if stored.FailedAttempts != 0 || !stored.LastAttemptAt.IsZero() {
		t.Fatalf("bookkeeping not cleared: %+v", stored)
	}
}

func TestResetFailures_UnknownAccount(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.ResetFailures(context.Background(), "acct-missing"); !errors.Is(err, fairauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateSecretHash(t *testing.T) {
	s, _ := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	ctx := context.Background()
	if err := s.UpdateSecretHash(ctx, "acct-1", "new-hash"); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, _ := s.FindByID(ctx, "acct-1")
	if stored.SecretHash != "new-hash" {
		t.Fatalf("secret hash = %q", stored.SecretHash)
	}

	if err := s.UpdateSecretHash(ctx, "acct-missing", "h"); !errors.Is(err, fairauth.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRevocationMarks(t *testing.T) {
	s, mr := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	ctx := context.Background()

	// No mark yet.
	revokedAt, err := s.RevokedAt(ctx, "acct-1")
	if err != nil {
		t.Fatalf("revoked at: %v", err)
	}
	if !revokedAt.IsZero() {
		t.Fatalf("unexpected mark %v", revokedAt)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.MarkRevoked(ctx, "acct-1", at, time.Hour); err != nil {
		t.Fatalf("mark revoked: %v", err)
	}

	revokedAt, err = s.RevokedAt(ctx, "acct-1")
	if err != nil {
		t.Fatalf("revoked at: %v", err)
	}
	if !revokedAt.Equal(at) {
		t.Fatalf("revoked at = %v, want %v", revokedAt, at)
	}

	// The mark ages out with its TTL.
	mr.FastForward(2 * time.Hour)

	revokedAt, err = s.RevokedAt(ctx, "acct-1")
	if err != nil {
		t.Fatalf("revoked at: %v", err)
	}
	if !revokedAt.IsZero() {
		t.Fatalf("mark survived its TTL: %v", revokedAt)
	}
}

func TestServerDown_WrapsUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	seedAccount(t, s, "acct-1", "alice@example.com")

	mr.Close()

	ctx := context.Background()

	if _, err := s.FindByIdentifier(ctx, "alice@example.com"); !errors.Is(err, fairauth.ErrStoreUnavailable) {
		t.Fatalf("find: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.RecordFailure(ctx, "acct-1", time.Now()); !errors.Is(err, fairauth.ErrStoreUnavailable) {
		t.Fatalf("record: expected ErrStoreUnavailable, got %v", err)
	}
	if err := s.RecordSuccess(ctx, "acct-1"); !errors.Is(err, fairauth.ErrStoreUnavailable) {
		t.Fatalf("success: expected ErrStoreUnavailable, got %v", err)
	}
}
