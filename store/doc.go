// Package store provides the Redis implementation of the credential store:
// account rows, the identifier index, revocation marks, and the Lua-scripted
// atomic failure bookkeeping the lockout policy is derived from.
//
// # What this package must NOT do
//
//   - Decide lockout. It records counts and timestamps; policy lives with
//     the engine.
//   - Hash secrets. Hashes arrive pre-computed.
package store
