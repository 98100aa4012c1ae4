package filecrypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/and161185/sealvault/internal/errs"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	key, err := Rand(KeyLen)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	e, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestHash_DeterministicHex(t *testing.T) {
	t.Parallel()
	p := []byte("payload")
	h1 := Hash(p)
	h2 := Hash(p)
	if h1 != h2 {
		t.Fatalf("Hash not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("len=%d, want 64 hex chars", len(h1))
	}
	if Hash([]byte("other")) == h1 {
		t.Fatalf("different payloads must not collide here")
	}
}

func TestNew_RejectsBadKeyLength(t *testing.T) {
	t.Parallel()
	if _, err := New([]byte("short")); err == nil {
		t.Fatalf("New must reject short keys")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	plaintext := []byte("the quick brown fox")

	nonce, ct, err := e.Encrypt("file-1", plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(nonce) != NonceLen {
		t.Fatalf("nonce len=%d, want=%d", len(nonce), NonceLen)
	}
	if bytes.Contains(ct, plaintext) {
		t.Fatalf("ciphertext contains plaintext")
	}

	out, err := e.Decrypt("file-1", nonce, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(out, plaintext) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	n1, _, err := e.Encrypt("file-1", []byte("x"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	n2, _, err := e.Encrypt("file-1", []byte("x"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatalf("nonce reused for same key")
	}
}

func TestDecrypt_WrongFileKey(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	nonce, ct, err := e.Encrypt("file-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := e.Decrypt("file-2", nonce, ct); !errors.Is(err, errs.ErrDecryption) {
		t.Fatalf("want ErrDecryption for other file id, got %v", err)
	}
}

func TestDecrypt_TamperedAndTruncated(t *testing.T) {
	t.Parallel()
	e := testEngine(t)
	nonce, ct, err := e.Encrypt("file-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	flipped := append([]byte(nil), ct...)
	flipped[0] ^= 0x01
	if _, err := e.Decrypt("file-1", nonce, flipped); !errors.Is(err, errs.ErrDecryption) {
		t.Fatalf("want ErrDecryption on tamper, got %v", err)
	}

	if _, err := e.Decrypt("file-1", nonce, ct[:len(ct)-1]); !errors.Is(err, errs.ErrDecryption) {
		t.Fatalf("want ErrDecryption on truncation, got %v", err)
	}

	if _, err := e.Decrypt("file-1", nonce[:4], ct); !errors.Is(err, errs.ErrDecryption) {
		t.Fatalf("want ErrDecryption on short nonce, got %v", err)
	}
}
