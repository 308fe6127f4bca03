// Package vault provides symmetric encryption for third-party API secrets
// at rest. Ciphertexts are self-describing versioned strings so future
// scheme migrations can coexist with rows written today.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	scheme  = "aesgcm"
	version = "v1"

	// masterKeyHexLen is the required length of the hex-encoded 256-bit key.
	masterKeyHexLen = 64
)

var (
	// ErrMasterKeyMissing indicates no master key was configured. This is a
	// configuration error and must abort startup, never silently skip
	// encryption.
	ErrMasterKeyMissing = errors.New("vault: master key is missing")
	// ErrMasterKeyMalformed indicates the master key is not 64 hex characters.
	ErrMasterKeyMalformed = errors.New("vault: master key must be 64 hex characters (256 bits)")
	// ErrEmptyPlaintext indicates an attempt to encrypt an empty value.
	ErrEmptyPlaintext = errors.New("vault: plaintext is empty")
	// ErrMalformedCiphertext indicates the ciphertext string does not parse.
	ErrMalformedCiphertext = errors.New("vault: malformed ciphertext")
	// ErrUnsupportedScheme indicates a ciphertext from an unknown scheme or
	// version.
	ErrUnsupportedScheme = errors.New("vault: unsupported ciphertext scheme")
	// ErrIntegrity indicates the authentication tag did not verify: the
	// ciphertext was tampered with or encrypted under a different key.
	// Partially-decrypted data is never returned.
	ErrIntegrity = errors.New("vault: ciphertext integrity check failed")
)

// Vault encrypts and decrypts secrets with AES-256-GCM under one master key.
type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault from a hex-encoded 256-bit master key.
func New(masterKeyHex string) (*Vault, error) {
	if masterKeyHex == "" {
		return nil, ErrMasterKeyMissing
	}
	if len(masterKeyHex) != masterKeyHexLen {
		return nil, ErrMasterKeyMalformed
	}
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, ErrMasterKeyMalformed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh random nonce and returns a
// versioned ciphertext string: scheme:version:nonce:tag:payload, each part
// hex-encoded.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - v.aead.Overhead()
	payload, tag := sealed[:tagStart], sealed[tagStart:]

	return strings.Join([]string{
		scheme,
		version,
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(payload),
	}, ":"), nil
}

// Decrypt opens a versioned ciphertext string and returns the plaintext.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 5 {
		return "", ErrMalformedCiphertext
	}
	if parts[0] != scheme || parts[1] != version {
		return "", ErrUnsupportedScheme
	}

	nonce, err := hex.DecodeString(parts[2])
	if err != nil || len(nonce) != v.aead.NonceSize() {
		return "", ErrMalformedCiphertext
	}
	tag, err := hex.DecodeString(parts[3])
	if err != nil || len(tag) != v.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}
	payload, err := hex.DecodeString(parts[4])
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	sealed := make([]byte, 0, len(payload)+len(tag))
	sealed = append(sealed, payload...)
	sealed = append(sealed, tag...)

	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}

// DecryptIfNeeded decrypts vault ciphertexts and passes through legacy
// plaintext values unchanged, for rows written before encryption existed.
func (v *Vault) DecryptIfNeeded(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	return v.Decrypt(value)
}

// Passthrough is a decrypter for deployments without a master key. Legacy
// plaintext values pass through; vault ciphertexts fail with
// ErrMasterKeyMissing instead of leaking garbage downstream.
type Passthrough struct{}

// NewPassthrough creates a keyless passthrough decrypter.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// DecryptIfNeeded returns plaintext values unchanged and rejects ciphertexts.
func (p *Passthrough) DecryptIfNeeded(value string) (string, error) {
	if IsEncrypted(value) {
		return "", ErrMasterKeyMissing
	}
	return value, nil
}

// IsEncrypted reports whether a stored value carries the vault scheme prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, scheme+":")
}
