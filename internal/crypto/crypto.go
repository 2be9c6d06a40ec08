// Package crypto: ChaCha20-Poly1305 payload cipher for the stream.
//
// The key is produced by an external association handshake and installed
// on the stream afterwards; this package only seals and opens payloads.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the required symmetric key size (32 bytes).
	KeySize = chacha20poly1305.KeySize
	// NonceSize for ChaCha20-Poly1305.
	NonceSize = chacha20poly1305.NonceSize
)

var (
	ErrKeySize        = errors.New("crypto: key size must be 32 bytes")
	ErrCiphertextSize = errors.New("crypto: ciphertext shorter than nonce")
)

// Cipher seals and opens message payloads with one established key.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from an established key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext; the random nonce is prepended to the result.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a Seal result (first NonceSize bytes are the nonce).
func (c *Cipher) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrCiphertextSize
	}
	nonce, sealed := ciphertext[:NonceSize], ciphertext[NonceSize:]
	return c.aead.Open(nil, nonce, sealed, nil)
}
