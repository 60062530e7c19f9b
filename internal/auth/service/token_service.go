package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/planner/internal/errors"
)

type tokenService struct{}

// GenerateToken creates a 32-byte random token, base64 URL encoded.
func (t *tokenService) GenerateToken() (plainToken string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken = base64.RawURLEncoding.EncodeToString(randomBytes)
	return plainToken, t.HashToken(plainToken), nil
}

// HashToken hashes a plain text token using SHA-256.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// Matches hashes plainToken and compares it with tokenHash in constant time.
func (t *tokenService) Matches(plainToken, tokenHash string) bool {
	if plainToken == "" || tokenHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.HashToken(plainToken)), []byte(tokenHash)) == 1
}

// NewTokenService creates a new TokenService.
func NewTokenService() TokenService {
	return &tokenService{}
}
