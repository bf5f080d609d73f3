// Package audit implements the asynchronous audit event pipeline used by the
// engine: a bounded-buffer dispatcher feeding a caller-supplied sink.
//
// # Architecture boundaries
//
// The dispatcher never blocks the authentication hot path: in drop-if-full
// mode a full queue increments a drop counter instead of stalling the caller.
//
// # What this package must NOT do
//
//   - Import the root fairauth package.
//   - Log or persist events itself — sinks decide what happens to events.
package audit
