// Package middleware provides net/http glue for protecting routes with
// verified sessions.
package middleware
