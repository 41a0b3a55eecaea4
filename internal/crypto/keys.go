package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// MasterKeySize is the length of the process-wide master secret.
	MasterKeySize = 32
	// UserKeySize is the length of a derived per-user key.
	UserKeySize = chacha20poly1305.KeySize

	// hkdfInfo binds derived keys to this scheme and version.
	// Changing it invalidates every stored commitment.
	hkdfInfo = "ninjapay-dev-v1"
)

var (
	// ErrConfiguration reports an unusable master secret. It is a startup
	// condition, never a per-request one.
	ErrConfiguration = errors.New("invalid encryption configuration")

	// ErrAuthentication reports a ciphertext that failed authentication:
	// tampered bytes, the wrong user, or a corrupted transport encoding.
	ErrAuthentication = errors.New("cannot decrypt: authentication failed")

	// ErrMissingUser reports an empty user identifier.
	ErrMissingUser = errors.New("user id is required")
)

// DeriveKey derives the 32-byte key of userID from master using
// HKDF-SHA256(ikm=master, salt=userID, info=hkdfInfo).
// The caller owns the returned slice and should clear it after use.
func DeriveKey(master []byte, userID string) ([]byte, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrConfiguration, MasterKeySize, len(master))
	}
	if userID == "" {
		return nil, ErrMissingUser
	}

	reader := hkdf.New(sha256.New, master, []byte(userID), []byte(hkdfInfo))
	key := make([]byte, UserKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
