package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	identityDomain "github.com/allisson/planner/internal/identity/domain"
)

const (
	// auditSigningInfo versions the derivation so the canonical form can change later.
	auditSigningInfo = "planner-audit-log-signing-v1"

	minAuditSecretLength = 32
	signingKeyLength     = 32
)

type auditSigner struct {
	key []byte
}

// NewAuditSigner derives the signing key from secret with HKDF-SHA256.
func NewAuditSigner(secret []byte) (AuditSigner, error) {
	if len(secret) < minAuditSecretLength {
		return nil, identityDomain.ErrSigningKeyTooShort
	}
	key, err := deriveSigningKey(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive audit signing key: %w", err)
	}
	return &auditSigner{key: key}, nil
}

func deriveSigningKey(secret []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, []byte(auditSigningInfo))

	key := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// canonicalize encodes the entry as
// id || subject || action || resource_type || resource_id || before || after ||
// ip_address || user_agent || request_id || created_at
// with every variable-length field length prefixed. JSON states are re-encoded with
// sorted keys so the form survives a JSONB round trip.
func canonicalize(log *identityDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 512)
	buf = append(buf, log.ID[:]...)

	if log.SubjectID != nil {
		buf = append(buf, 1)
		buf = append(buf, log.SubjectID[:]...)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(log.Action))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceType))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceID))

	for _, state := range []json.RawMessage{log.Before, log.After} {
		normalized, err := normalizeJSON(state)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize audit state: %w", err)
		}
		buf = appendLengthPrefixed(buf, normalized)
	}

	buf = appendOptional(buf, log.IPAddress)
	buf = appendOptional(buf, log.UserAgent)
	buf = appendLengthPrefixed(buf, []byte(log.RequestID))

	// Microseconds are the precision both databases keep.
	buf = binary.BigEndian.AppendUint64(buf, uint64(log.CreatedAt.UnixMicro()))
	return buf, nil
}

func normalizeJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func appendOptional(buf []byte, s *string) []byte {
	if s == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendLengthPrefixed(buf, []byte(*s))
}

// appendLengthPrefixed adds a 4-byte big-endian length followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Sign returns the 32-byte HMAC-SHA256 signature of the entry.
func (a *auditSigner) Sign(log *identityDomain.AuditLog) ([]byte, error) {
	canonical, err := canonicalize(log)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, a.key)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the stored signature in constant time.
func (a *auditSigner) Verify(log *identityDomain.AuditLog) error {
	expected, err := a.Sign(log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}
	if !hmac.Equal(log.Signature, expected) {
		return identityDomain.ErrSignatureInvalid
	}
	return nil
}
