// Package fairauth provides the authentication and account-lockout engine for
// the fair-management platform: credential verification, per-account failure
// tracking with a time-boxed lockout, and signed session tokens with a
// caller-selected lifetime.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The engine itself holds no per-request state — all durable
// state lives in the [CredentialStore] and all session state is self-contained
// in the signed token, so any number of instances can run behind a load
// balancer.
//
// # Architecture boundaries
//
// fairauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([AuthResult], [SessionClaims], [Account]). Lockout
// arithmetic lives in lockout/, token signing in token/, secret hashing in
// password/, and the Redis-backed store in store/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store encoding details in its public API.
//   - Reveal whether an identifier exists: unknown accounts and wrong secrets
//     both surface as [ErrInvalidCredentials].
//   - Re-check lockout state during session verification — lockout gates new
//     authentications only, never already-issued tokens.
package fairauth
