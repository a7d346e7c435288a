// Package cryptox implements the low-level custody primitives: PIN-based
// key derivation, authenticated encryption of the wallet secret, and
// constant-time comparison.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived AES key size in bytes (AES-256).
	KeySize = 32
	// SaltSize is the PBKDF2 salt size in bytes.
	SaltSize = 32
	// IVSize is the GCM nonce size in bytes.
	IVSize = 12
	// TagSize is the GCM authentication tag size in bytes.
	TagSize = 16

	// kdfIterations is the fixed PBKDF2 iteration count. The PIN is a
	// low-entropy secret, so derivation has to stay deliberately expensive.
	kdfIterations = 600_000
)

// ErrDecryptionFailed is the single error returned for every decryption
// failure: wrong key, corrupted ciphertext, tampered IV, or tampered tag.
// The causes are indistinguishable to the caller on purpose.
var ErrDecryptionFailed = errors.New("decryption failed")

// DeriveKey stretches a PIN and salt into a 256-bit AES key using PBKDF2
// with an HMAC-SHA-256 core. The caller owns the returned buffer and
// should wipe it when done.
func DeriveKey(pin []byte, salt []byte) []byte {
	return pbkdf2.Key(pin, salt, kdfIterations, KeySize, sha256.New)
}

// Encrypt seals plaintext under key with AES-256-GCM. A fresh random
// 12-byte IV is generated on every call; the 16-byte tag is returned
// separately from the ciphertext.
func Encrypt(plaintext []byte, key []byte) (iv, ciphertext, authTag []byte, err error) {
	iv = make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed := aesgcm.Seal(nil, iv, plaintext, nil)

	// Seal appends the tag to the ciphertext; split it off.
	ciphertext = sealed[:len(sealed)-TagSize]
	authTag = sealed[len(sealed)-TagSize:]
	return iv, ciphertext, authTag, nil
}

// Decrypt opens ciphertext with AES-256-GCM. Any failure, whatever the
// underlying cause, is reported as ErrDecryptionFailed.
func Decrypt(ciphertext, key, iv, authTag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(iv) != aesgcm.NonceSize() {
		return nil, ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := aesgcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// SecureCompare reports whether a and b are equal in constant time.
// When lengths differ it still walks a full equal-length comparison
// (a against itself) before returning false, so the mismatch path costs
// the same as a real comparison.
func SecureCompare(a, b []byte) bool {
	if len(a) != len(b) {
		subtle.ConstantTimeCompare(a, a)
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
