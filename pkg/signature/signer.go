package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// MinSecretLength is the shortest secret NewSigner accepts.
const MinSecretLength = 16

var (
	// ErrSecretTooShort is returned by NewSigner for weak secrets.
	ErrSecretTooShort = errors.New("signature: secret too short")

	// ErrInvalid is returned when a signature does not match its state.
	// Callers must reject the request.
	ErrInvalid = errors.New("signature: invalid signature")
)

// Signer signs and verifies component state with HMAC-SHA256.
//
// The MAC covers the canonical state followed by the component id, so a
// state blob signed for one component cannot be replayed against another.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. The secret is copied.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &Signer{secret: append([]byte(nil), secret...)}, nil
}

// Sign returns the hex-encoded signature of state for componentID.
func (s *Signer) Sign(state map[string]any, componentID string) (string, error) {
	mac, err := s.mac(state, componentID)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(mac), nil
}

// Verify reports whether signature is valid for state and componentID.
// The comparison is constant time. A state that cannot be encoded never
// verifies.
func (s *Signer) Verify(state map[string]any, componentID, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	expected, err := s.mac(state, componentID)
	if err != nil {
		return false
	}
	return hmac.Equal(got, expected)
}

// Check is Verify returning ErrInvalid on mismatch.
func (s *Signer) Check(state map[string]any, componentID, signature string) error {
	if !s.Verify(state, componentID, signature) {
		return ErrInvalid
	}
	return nil
}

func (s *Signer) mac(state map[string]any, componentID string) ([]byte, error) {
	canonical, err := Canonical(state)
	if err != nil {
		return nil, err
	}
	m := hmac.New(sha256.New, s.secret)
	m.Write(canonical)
	m.Write([]byte(componentID))
	return m.Sum(nil), nil
}
