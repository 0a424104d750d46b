// Package encryption seals saved tax reports at rest with Fernet tokens.
package encryption

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrInvalidToken is returned when a token was not produced by one of the
// sealer's keys or has been tampered with.
var ErrInvalidToken = errors.New("invalid or tampered token")

// Sealer encrypts and authenticates payloads. The first key seals; every key
// opens, so keys can be rotated by prepending a new one.
type Sealer struct {
	keys []*fernet.Key
}

// NewSealer parses base64 Fernet keys. At least one key is required.
func NewSealer(encodedKeys ...string) (*Sealer, error) {
	if len(encodedKeys) == 0 {
		return nil, errors.New("at least one key is required")
	}
	keys, err := fernet.DecodeKeys(encodedKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet keys: %w", err)
	}
	return &Sealer{keys: keys}, nil
}

// GenerateKey returns a new random base64 Fernet key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return k.Encode(), nil
}

// Seal encrypts payload into a token.
func (s *Sealer) Seal(payload []byte) (string, error) {
	token, err := fernet.EncryptAndSign(payload, s.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to seal payload: %w", err)
	}
	return string(token), nil
}

// Open decrypts a token produced by Seal. Tokens never expire.
func (s *Sealer) Open(token string) ([]byte, error) {
	payload := fernet.VerifyAndDecrypt([]byte(token), -1, s.keys)
	if payload == nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}
