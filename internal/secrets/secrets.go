// Package secrets encrypts registry API keys before they reach the database.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// KeySize is the required length of a decoded key in bytes.
const KeySize = 32

// ErrCiphertextTooShort is returned when a stored value cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Cipher seals and opens string secrets.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Encryptor implements Cipher with AES-256-GCM. Ciphertexts are hex encoded
// with the nonce prepended.
type Encryptor struct {
	gcm cipher.AEAD
}

var _ Cipher = (*Encryptor)(nil)

// NewEncryptor creates an Encryptor from a hex encoded 32 byte key.
func NewEncryptor(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{gcm: gcm}, nil
}

// NewEncryptorFromFile reads a hex key from path.
func NewEncryptorFromFile(path string) (*Encryptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret key file: %w", err)
	}
	return NewEncryptor(string(data))
}

// Encrypt seals plaintext under a fresh random nonce.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	size := e.gcm.NonceSize()
	if len(raw) < size {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := e.gcm.Open(nil, raw[:size], raw[size:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
