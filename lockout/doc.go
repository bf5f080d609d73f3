// Package lockout implements the pure account-lockout policy: given a
// consecutive failure count and the timestamp of the most recent failure, it
// derives whether the account is locked and for how much longer.
//
// The package holds no state and performs no I/O; persistence of the failure
// bookkeeping belongs to the credential store.
package lockout
