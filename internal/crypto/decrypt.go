package crypto

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// DecryptU64 authenticates and decrypts a ciphertext produced by EncryptU64
// for the same userID. Any failure is reported as ErrAuthentication and no
// value is returned.
func (c *Codec) DecryptU64(ciphertext []byte, userID string) (uint64, error) {
	if err := ValidateCiphertext(ciphertext); err != nil {
		return 0, err
	}

	plaintext, err := c.open(ciphertext, userID)
	if err != nil {
		return 0, err
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	if len(plaintext) != AmountSize {
		return 0, fmt.Errorf("%w: expected %d plaintext bytes, got %d", ErrAuthentication, AmountSize, len(plaintext))
	}
	return binary.LittleEndian.Uint64(plaintext), nil
}

// DecryptU64String is DecryptU64 for a base64 transport string.
func (c *Codec) DecryptU64String(encoded string, userID string) (uint64, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid base64: %v", ErrAuthentication, err)
	}
	return c.DecryptU64(ciphertext, userID)
}

// ValidateCiphertext checks the wire shape of a single-amount ciphertext
// without touching key material.
func ValidateCiphertext(ciphertext []byte) error {
	if len(ciphertext) != CiphertextSize {
		return fmt.Errorf("%w: ciphertext must be %d bytes, got %d", ErrAuthentication, CiphertextSize, len(ciphertext))
	}
	return nil
}

func (c *Codec) open(ciphertext []byte, userID string) ([]byte, error) {
	key, err := DeriveKey(c.master[:], userID)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce, sealed := ciphertext[:NonceSize], ciphertext[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
