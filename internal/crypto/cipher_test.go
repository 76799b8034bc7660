package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Talha76/Together/internal/crypto"
	"github.com/Talha76/Together/internal/domain"
)

func testSecret(t *testing.T, code string) domain.SharedSecret {
	t.Helper()
	s, err := crypto.SecretFromCode(code)
	if err != nil {
		t.Fatalf("SecretFromCode: %v", err)
	}
	return s
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testSecret(t, "correct-horse-battery")
	for _, msg := range []string{"hello", "", "späte grüße 你好", "a longer message that spans a few blocks of the stream cipher just in case"} {
		env, err := crypto.Encrypt(msg, key)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", msg, err)
		}
		got, err := crypto.Decrypt(env, key)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", msg, err)
		}
		if got != msg {
			t.Fatalf("got %q, want %q", got, msg)
		}
	}
}

func TestDecrypt_WrongKeyFailsClosed(t *testing.T) {
	key := testSecret(t, "correct-horse-battery")
	other := testSecret(t, "a-different-code")

	env, err := crypto.Encrypt("hello", key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := crypto.Decrypt(env, other); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	key := testSecret(t, "correct-horse-battery")
	env, err := crypto.Encrypt("hello", key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// Flip one bit in every ciphertext byte position in turn.
	for i := range env.Cipher {
		mod := domain.Envelope{Nonce: env.Nonce, Cipher: bytes.Clone(env.Cipher)}
		mod.Cipher[i] ^= 0x01
		if _, err := crypto.Decrypt(mod, key); !errors.Is(err, domain.ErrDecryptionFailed) {
			t.Fatalf("ciphertext bit flip at %d not detected: %v", i, err)
		}
	}

	// Same for the nonce.
	for i := range env.Nonce {
		mod := domain.Envelope{Nonce: bytes.Clone(env.Nonce), Cipher: env.Cipher}
		mod.Nonce[i] ^= 0x01
		if _, err := crypto.Decrypt(mod, key); !errors.Is(err, domain.ErrDecryptionFailed) {
			t.Fatalf("nonce bit flip at %d not detected: %v", i, err)
		}
	}

	// A truncated nonce never reaches the AEAD.
	short := domain.Envelope{Nonce: env.Nonce[:12], Cipher: env.Cipher}
	if _, err := crypto.Decrypt(short, key); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("truncated nonce not rejected: %v", err)
	}
}

func TestEncrypt_FreshNoncePerEnvelope(t *testing.T) {
	key := testSecret(t, "correct-horse-battery")
	a, err := crypto.Encrypt("hello", key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := crypto.Encrypt("hello", key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a.Nonce, b.Nonce) {
		t.Fatal("two encryptions reused a nonce")
	}
	if bytes.Equal(a.Cipher, b.Cipher) {
		t.Fatal("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestTwoClients_SharedCodeScenario(t *testing.T) {
	// Client A and client B each derive from the shared code; a third party
	// with a different code cannot read the traffic.
	keyA := testSecret(t, "correct-horse-battery")
	keyB := testSecret(t, "correct-horse-battery")
	keyEve := testSecret(t, "wrong-guess-entirely")

	env, err := crypto.Encrypt("hello", keyA)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := crypto.Decrypt(env, keyB)
	if err != nil {
		t.Fatalf("Decrypt on peer: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
	if _, err := crypto.Decrypt(env, keyEve); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("wrong code's secret must not decrypt: %v", err)
	}
}
