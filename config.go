package fairauth

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config defines a public type used by fairauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token      TokenConfig
	Lockout    LockoutConfig
	Password   PasswordConfig
	Store      StoreConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by fairauth APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	ShortTTL      time.Duration // default session lifetime
	LongTTL       time.Duration // extended ("remember me") lifetime
	SigningMethod string        // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig defines a public type used by fairauth APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	Threshold int           // consecutive failures before the lock trips
	Duration  time.Duration // how long a tripped lock holds
}

// PasswordConfig defines a public type used by fairauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// StoreConfig defines a public type used by fairauth APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	KeyPrefix string
}

// RevocationConfig defines a public type used by fairauth APIs.
//
// RevocationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// When Enabled is false (the baseline), Invalidate is a client-side hint and
// VerifySession never touches the store.
type RevocationConfig struct {
	Enabled bool
}

// AuditConfig defines a public type used by fairauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by fairauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. A signing key must still
// be supplied before [Config.Validate] passes.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			ShortTTL:      24 * time.Hour,
			LongTTL:       30 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "fairauth",
			Leeway:        30 * time.Second,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Store: StoreConfig{
			KeyPrefix: "fa",
		},
		Revocation: RevocationConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// FromEnv returns DefaultConfig overlaid with the recognized environment
// options:
//
//	FAIRAUTH_LOCKOUT_THRESHOLD  int            (default 5)
//	FAIRAUTH_LOCKOUT_DURATION   time.Duration  (default 15m)
//	FAIRAUTH_TOKEN_SHORT_TTL    time.Duration  (default 24h)
//	FAIRAUTH_TOKEN_LONG_TTL     time.Duration  (default 720h)
//	FAIRAUTH_SIGNING_SECRET     string         (hs256 key, required)
//
// Malformed values are reported rather than silently ignored.
func FromEnv() (Config, error) {
	cfg := defaultConfig()

	if v := os.Getenv("FAIRAUTH_LOCKOUT_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("FAIRAUTH_LOCKOUT_THRESHOLD must be an integer")
		}
		cfg.Lockout.Threshold = n
	}
	if v := os.Getenv("FAIRAUTH_LOCKOUT_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("FAIRAUTH_LOCKOUT_DURATION must be a duration")
		}
		cfg.Lockout.Duration = d
	}
	if v := os.Getenv("FAIRAUTH_TOKEN_SHORT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("FAIRAUTH_TOKEN_SHORT_TTL must be a duration")
		}
		cfg.Token.ShortTTL = d
	}
	if v := os.Getenv("FAIRAUTH_TOKEN_LONG_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("FAIRAUTH_TOKEN_LONG_TTL must be a duration")
		}
		cfg.Token.LongTTL = d
	}
	if v := os.Getenv("FAIRAUTH_SIGNING_SECRET"); v != "" {
		cfg.Token.PrivateKey = []byte(v)
	}

	return cfg, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if c.Token.ShortTTL <= 0 {
		return errors.New("Token ShortTTL must be > 0")
	}
	if c.Token.LongTTL <= 0 {
		return errors.New("Token LongTTL must be > 0")
	}
	if c.Token.LongTTL < c.Token.ShortTTL {
		return errors.New("Token LongTTL must be >= ShortTTL")
	}
	if c.Token.SigningMethod != "hs256" && c.Token.SigningMethod != "ed25519" {
		return errors.New("unsupported token signing method")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("token signing requires PrivateKey")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Lockout
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Store
	if c.Store.KeyPrefix == "" {
		return errors.New("Store KeyPrefix must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
