package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/planner/internal/errors"
)

type passwordService struct {
	hasher    *pwdhash.PasswordHasher
	dummyHash string
}

// Hash hashes password with Argon2id.
func (s *passwordService) Hash(password string) (string, error) {
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// Verify compares password against hash. Malformed hashes never match.
func (s *passwordService) Verify(password, hash string) bool {
	if hash == "" {
		_, _ = s.hasher.Verify([]byte(password), s.dummyHash)
		return false
	}
	ok, err := s.hasher.Verify([]byte(password), hash)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordService creates a PasswordService using the interactive Argon2id policy.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	dummyHash, err := hasher.Hash([]byte("planner-dummy-password"))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create dummy hash")
	}

	return &passwordService{hasher: hasher, dummyHash: dummyHash}, nil
}
