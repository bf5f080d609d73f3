// Package token issues and parses the signed session tokens returned by the
// engine. Tokens are JWTs carrying the account ID as subject plus identifier
// and role claims, signed with HS256 by default or Ed25519 when configured.
package token
