// Package service provides the credential primitives of the authorization service:
// password hashing, session token generation and audit log signing.
package service

import (
	identityDomain "github.com/allisson/planner/internal/identity/domain"
)

// PasswordService hashes and verifies account passwords.
type PasswordService interface {
	// Hash returns the PHC encoded Argon2id hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. An empty hash is compared against
	// a fixed dummy hash so unknown accounts take as long as wrong passwords.
	Verify(password, hash string) bool
}

// TokenService generates opaque session bearer tokens. Only the SHA-256 hash of a
// token is ever stored.
type TokenService interface {
	// GenerateToken returns a fresh 256-bit token and its hash.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken returns the hex encoded SHA-256 hash of plainToken.
	HashToken(plainToken string) string

	// Matches compares plainToken against tokenHash in constant time.
	Matches(plainToken, tokenHash string) bool
}

// AuditSigner signs audit log entries with a key derived from the configured secret.
type AuditSigner interface {
	// Sign returns the HMAC-SHA256 of the entry's canonical form.
	Sign(log *identityDomain.AuditLog) ([]byte, error)

	// Verify recomputes the signature and compares it with log.Signature. It returns
	// identityDomain.ErrSignatureInvalid on mismatch.
	Verify(log *identityDomain.AuditLog) error
}
