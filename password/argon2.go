package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minSecretBytes        = 8
)

var (
	// ErrHashMalformed reports a stored hash that is not a well-formed
	// argon2id PHC string.
	ErrHashMalformed = errors.New("malformed password hash")
	// ErrSecretTooShort reports a secret below the minimum byte length.
	ErrSecretTooShort = fmt.Errorf("secret must be at least %d bytes", minSecretBytes)
)

// Params are the argon2id cost parameters used when hashing new secrets.
// Memory is in KB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the baseline cost parameters.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies secrets in argon2id PHC format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt-b64>$<key-b64>
//
// Secrets are compared as raw bytes exactly as provided; no Unicode
// normalization is applied.
type Hasher struct {
	params Params
}

// NewHasher validates params and returns a ready Hasher.
func NewHasher(params Params) (*Hasher, error) {
	if params.Memory < minMemoryKB {
		return nil, errors.New("memory must be >= 8192 KB")
	}
	if params.Time < 1 {
		return nil, errors.New("time must be >= 1")
	}
	if params.Parallelism < 1 {
		return nil, errors.New("parallelism must be >= 1")
	}
	if params.SaltLength < minSaltLength {
		return nil, errors.New("salt length must be >= 16")
	}
	if params.KeyLength < minKeyLength {
		return nil, errors.New("key length must be >= 16")
	}

	return &Hasher{params: params}, nil
}

// Hash derives a fresh salted argon2id hash of secret and returns it in PHC
// encoding.
func (h *Hasher) Hash(secret string) (string, error) {
	if len(secret) < minSecretBytes {
		return "", ErrSecretTooShort
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	encoded := fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify recomputes the hash of secret under the parameters embedded in
// encoded and compares in constant time. A malformed encoded hash is an
// error, not a mismatch.
func (h *Hasher) Verify(secret string, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(secret),
		salt,
		params.Time,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker cost
// parameters than the Hasher currently uses. Callers rehash on the next
// successful verification.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	params, _, _, err := decode(encoded)
	if err != nil {
		return false, err
	}

	switch {
	case params.Memory < h.params.Memory:
		return true, nil
	case params.Time < h.params.Time:
		return true, nil
	case params.Parallelism < h.params.Parallelism:
		return true, nil
	case params.KeyLength != h.params.KeyLength:
		return true, nil
	}

	return false, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, ErrHashMalformed
	}
	if parts[1] != algorithmID {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrHashMalformed, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrHashMalformed
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrHashMalformed, version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return Params{}, nil, nil, ErrHashMalformed
	}
	if params.Memory < minMemoryKB || params.Time < 1 || params.Parallelism < 1 {
		return Params{}, nil, nil, ErrHashMalformed
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return Params{}, nil, nil, ErrHashMalformed
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < int(minKeyLength) {
		return Params{}, nil, nil, ErrHashMalformed
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
