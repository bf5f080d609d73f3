// Package password hashes and verifies account secrets with argon2id,
// serialized in PHC string format so cost parameters travel with each hash
// and can be upgraded transparently on the next successful login.
package password
