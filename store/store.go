package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrofair/fairauth"
)

// ErrIdentifierTaken is returned by CreateAccount when the identifier is
// already indexed.
var ErrIdentifierTaken = errors.New("identifier already registered")

const (
	fieldIdentifier    = "identifier"
	fieldSecretHash    = "secret_hash"
	fieldRole          = "role"
	fieldFailedCount   = "failed_attempts"
	fieldLastAttemptAt = "last_attempt_at"
)

// createAccountScript claims the identifier index and writes the account row
// in one step so two concurrent registrations cannot both win.
const createAccountScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "identifier", ARGV[2],
  "secret_hash", ARGV[3],
  "role", ARGV[4],
  "failed_attempts", "0",
  "last_attempt_at", "0")
return 1
`

// recordFailureScript is the single atomic read-modify-write behind failed
// login bookkeeping: increment the counter, stamp the attempt time, and hand
// back the fields the caller needs to re-evaluate the lock. Two concurrent
// failures both observe their own increment.
const recordFailureScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return false
end
local count = redis.call("HINCRBY", KEYS[1], "failed_attempts", 1)
redis.call("HSET", KEYS[1], "last_attempt_at", ARGV[1])
local row = redis.call("HMGET", KEYS[1], "identifier", "secret_hash", "role")
return {count, row[1], row[2], row[3]}
`

// resetFailuresScript clears the counter and the attempt stamp together.
const resetFailuresScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "failed_attempts", "0", "last_attempt_at", "0")
return 1
`

var (
	createAccountLua = redis.NewScript(createAccountScript)
	recordFailureLua = redis.NewScript(recordFailureScript)
	resetFailuresLua = redis.NewScript(resetFailuresScript)
)

// Store is a Redis-backed [fairauth.CredentialStore]. Account rows live in
// hashes keyed by account ID with a separate identifier index, so lookups by
// either handle are O(1) and failure bookkeeping is a scripted
// read-modify-write on one key.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

// New returns a Store using client under the given key prefix.
func New(client redis.UniversalClient, keyPrefix string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = "fa"
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
	}, nil
}

func (s *Store) accountKey(accountID string) string {
	return fmt.Sprintf("%s:acct:%s", s.keyPrefix, accountID)
}

func (s *Store) identifierKey(identifier string) string {
	return fmt.Sprintf("%s:ident:%s", s.keyPrefix, identifier)
}

func (s *Store) revokedKey(accountID string) string {
	return fmt.Sprintf("%s:revoked:%s", s.keyPrefix, accountID)
}

// CreateAccount registers a new account row and its identifier index.
// Returns [ErrIdentifierTaken] when the identifier is already claimed.
func (s *Store) CreateAccount(ctx context.Context, account fairauth.Account) error {
	if account.ID == "" || account.Identifier == "" || account.SecretHash == "" {
		return errors.New("account ID, identifier and secret hash are required")
	}

	created, err := createAccountLua.Run(ctx, s.client,
		[]string{s.identifierKey(account.Identifier), s.accountKey(account.ID)},
		account.ID, account.Identifier, account.SecretHash, string(account.Role),
	).Int64()
	if err != nil {
		return storeErr(err)
	}
	if created == 0 {
		return ErrIdentifierTaken
	}
	return nil
}

// FindByIdentifier describes the findbyidentifier operation and its observable behavior.
//
// FindByIdentifier may return an error when input validation, dependency calls, or security checks fail.
// FindByIdentifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (fairauth.Account, error) {
	accountID, err := s.client.Get(ctx, s.identifierKey(identifier)).Result()
	if err == redis.Nil {
		return fairauth.Account{}, fairauth.ErrAccountNotFound
	}
	if err != nil {
		return fairauth.Account{}, storeErr(err)
	}
	return s.FindByID(ctx, accountID)
}

// FindByID describes the findbyid operation and its observable behavior.
//
// FindByID may return an error when input validation, dependency calls, or security checks fail.
// FindByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByID(ctx context.Context, accountID string) (fairauth.Account, error) {
	row, err := s.client.HGetAll(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return fairauth.Account{}, storeErr(err)
	}
	if len(row) == 0 {
		return fairauth.Account{}, fairauth.ErrAccountNotFound
	}

	account := fairauth.Account{
		ID:         accountID,
		Identifier: row[fieldIdentifier],
		SecretHash: row[fieldSecretHash],
		Role:       fairauth.Role(row[fieldRole]),
	}
	if v := row[fieldFailedCount]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fairauth.Account{}, storeErr(fmt.Errorf("corrupt failed_attempts for %s: %v", accountID, err))
		}
		account.FailedAttempts = n
	}
	account.LastAttemptAt = decodeTime(row[fieldLastAttemptAt])

	return account, nil
}

// RecordFailure describes the recordfailure operation and its observable behavior.
//
// RecordFailure may return an error when input validation, dependency calls, or security checks fail.
// RecordFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) RecordFailure(ctx context.Context, accountID string, at time.Time) (fairauth.Account, error) {
	res, err := recordFailureLua.Run(ctx, s.client,
		[]string{s.accountKey(accountID)},
		encodeTime(at),
	).Result()
	if err == redis.Nil {
		return fairauth.Account{}, fairauth.ErrAccountNotFound
	}
	if err != nil {
		return fairauth.Account{}, storeErr(err)
	}

	fields, ok := res.([]interface{})
	if !ok || len(fields) != 4 {
		return fairauth.Account{}, storeErr(fmt.Errorf("unexpected script reply %T", res))
	}
	count, ok := fields[0].(int64)
	if !ok {
		return fairauth.Account{}, storeErr(fmt.Errorf("unexpected counter reply %T", fields[0]))
	}

	return fairauth.Account{
		ID:             accountID,
		Identifier:     luaString(fields[1]),
		SecretHash:     luaString(fields[2]),
		Role:           fairauth.Role(luaString(fields[3])),
		FailedAttempts: int(count),
		LastAttemptAt:  at,
	}, nil
}

// RecordSuccess describes the recordsuccess operation and its observable behavior.
//
// RecordSuccess may return an error when input validation, dependency calls, or security checks fail.
// RecordSuccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) RecordSuccess(ctx context.Context, accountID string) error {
	return s.resetFailures(ctx, accountID)
}

// ResetFailures describes the resetfailures operation and its observable behavior.
//
// ResetFailures may return an error when input validation, dependency calls, or security checks fail.
// ResetFailures does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) ResetFailures(ctx context.Context, accountID string) error {
	return s.resetFailures(ctx, accountID)
}

func (s *Store) resetFailures(ctx context.Context, accountID string) error {
	existed, err := resetFailuresLua.Run(ctx, s.client,
		[]string{s.accountKey(accountID)},
	).Int64()
	if err != nil {
		return storeErr(err)
	}
	if existed == 0 {
		return fairauth.ErrAccountNotFound
	}
	return nil
}

// UpdateSecretHash describes the updatesecrethash operation and its observable behavior.
//
// UpdateSecretHash may return an error when input validation, dependency calls, or security checks fail.
// UpdateSecretHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdateSecretHash(ctx context.Context, accountID string, newHash string) error {
	if newHash == "" {
		return errors.New("new hash must not be empty")
	}
	exists, err := s.client.Exists(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return storeErr(err)
	}
	if exists == 0 {
		return fairauth.ErrAccountNotFound
	}
	if err := s.client.HSet(ctx, s.accountKey(accountID), fieldSecretHash, newHash).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// MarkRevoked describes the markrevoked operation and its observable behavior.
//
// MarkRevoked may return an error when input validation, dependency calls, or security checks fail.
// MarkRevoked does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The mark is stored with ttl so it expires once every token issued before it
// would have expired anyway.
func (s *Store) MarkRevoked(ctx context.Context, accountID string, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, s.revokedKey(accountID), encodeTime(at), ttl).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// RevokedAt describes the revokedat operation and its observable behavior.
//
// RevokedAt may return an error when input validation, dependency calls, or security checks fail.
// RevokedAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) RevokedAt(ctx context.Context, accountID string) (time.Time, error) {
	v, err := s.client.Get(ctx, s.revokedKey(accountID)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, storeErr(err)
	}
	return decodeTime(v), nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", fairauth.ErrStoreUnavailable, err)
}

// Timestamps are stored as unix nanoseconds; "0" means never.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func decodeTime(v string) time.Time {
	if v == "" || v == "0" {
		return time.Time{}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func luaString(v interface{}) string {
	s, _ := v.(string)
	return s
}
