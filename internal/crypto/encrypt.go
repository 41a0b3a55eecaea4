package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// NonceSize is the length of the random nonce prefix.
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the length of the Poly1305 authentication tag suffix.
	TagSize = chacha20poly1305.Overhead
	// AmountSize is the length of an encoded amount plaintext.
	AmountSize = 8
	// CiphertextSize is the wire size of one encrypted amount:
	// nonce(12) || body(8) || tag(16).
	CiphertextSize = NonceSize + AmountSize + TagSize
)

// Codec encrypts and decrypts amounts under per-user keys derived from one
// master secret. A Codec is immutable and safe for concurrent use.
type Codec struct {
	master [MasterKeySize]byte
}

// NewCodec creates a Codec that owns a copy of master.
func NewCodec(master []byte) (*Codec, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrConfiguration, MasterKeySize, len(master))
	}

	c := &Codec{}
	copy(c.master[:], master)
	return c, nil
}

// EncryptU64 encrypts value for userID.
//
// The amount is encoded as 8 little-endian bytes before sealing. Every call
// draws a fresh random nonce, so equal amounts never produce equal output.
func (c *Codec) EncryptU64(value uint64, userID string) ([]byte, error) {
	var plaintext [AmountSize]byte
	binary.LittleEndian.PutUint64(plaintext[:], value)
	defer clear(plaintext[:])

	return c.seal(plaintext[:], userID)
}

// EncryptU64String is EncryptU64 with base64 transport encoding.
func (c *Codec) EncryptU64String(value uint64, userID string) (string, error) {
	ct, err := c.EncryptU64(value, userID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// EncryptBatch encrypts every value for the same user, in order.
func (c *Codec) EncryptBatch(values []uint64, userID string) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, v := range values {
		ct, err := c.EncryptU64String(v, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt item %d: %w", i, err)
		}
		out = append(out, ct)
	}
	return out, nil
}

func (c *Codec) seal(plaintext []byte, userID string) ([]byte, error) {
	key, err := DeriveKey(c.master[:], userID)
	if err != nil {
		return nil, err
	}
	defer clear(key) // wipe derived key from memory

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Generate nonce directly into the output prefix
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}
