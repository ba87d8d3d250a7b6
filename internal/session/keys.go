package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var errShortSecret = errors.New("session secret must be at least 16 bytes")

// DeriveKeys expands one secret into a 64-byte HMAC key and a 32-byte AES key
func DeriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	if len(secret) < 16 {
		return nil, nil, errShortSecret
	}

	reader := hkdf.New(sha256.New, []byte(secret), []byte("ticket-checkout/session"), []byte("cookie-keys"))

	hashKey = make([]byte, 64)
	if _, err := io.ReadFull(reader, hashKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive hash key: %w", err)
	}

	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(reader, blockKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive block key: %w", err)
	}

	return hashKey, blockKey, nil
}
