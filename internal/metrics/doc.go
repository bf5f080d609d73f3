// Package metrics provides the in-process counters the engine increments on
// every authentication, verification, and lockout outcome. Counters are plain
// atomics; exporting them to an external system is the caller's concern via
// Snapshot.
package metrics
