// Package filecrypto implements content hashing and authenticated encryption
// of file payloads. Transforms are pure over the buffers they are given.
package filecrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/and161185/sealvault/internal/errs"
)

// Params
const (
	KeyLen   = 32
	NonceLen = chacha20poly1305.NonceSizeX

	// MasterKeyEnv is the environment variable holding the hex-encoded
	// 256-bit master key. The key never appears in source or flags.
	MasterKeyEnv = "SEALVAULT_MASTER_KEY"
)

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hash returns the hex SHA-256 digest of plaintext. It is computed before any
// encryption step and doubles as the verification comparand.
func Hash(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

// Engine encrypts and decrypts file payloads with per-file subkeys derived
// from a service-controlled master key.
type Engine struct {
	master []byte
}

// New constructs an Engine from a raw 256-bit master key.
func New(master []byte) (*Engine, error) {
	if len(master) != KeyLen {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeyLen, len(master))
	}
	return &Engine{master: master}, nil
}

// NewFromEnv reads the hex master key from MasterKeyEnv.
func NewFromEnv() (*Engine, error) {
	raw := os.Getenv(MasterKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", MasterKeyEnv)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid hex: %w", MasterKeyEnv, err)
	}
	return New(key)
}

// fileKey derives a per-file subkey via HKDF-SHA256 using fileID as info.
func (e *Engine) fileKey(fileID string) ([]byte, error) {
	r := hkdf.New(sha256.New, e.master, nil, []byte(fileID))
	key := make([]byte, KeyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext under the file's subkey with a fresh random nonce.
// The nonce is returned separately so the blob store can persist it as the
// iv artifact next to the ciphertext.
func (e *Engine) Encrypt(fileID string, plaintext []byte) (nonce, ciphertext []byte, err error) {
	key, err := e.fileKey(fileID)
	if err != nil {
		return nil, nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, err
	}
	nonce, err = Rand(NonceLen)
	if err != nil {
		return nil, nil, err
	}
	return nonce, aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt is the inverse of Encrypt. It fails with errs.ErrDecryption if the
// nonce/ciphertext pair is inconsistent, truncated, or tampered with.
func (e *Engine) Decrypt(fileID string, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceLen {
		return nil, fmt.Errorf("%w: bad nonce length %d", errs.ErrDecryption, len(nonce))
	}
	key, err := e.fileKey(fileID)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}
	return plaintext, nil
}
