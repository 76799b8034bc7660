package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/Talha76/Together/internal/domain"
)

// NonceBytes is the XSalsa20-Poly1305 nonce length. At 192 bits, random
// nonces are collision-negligible under a single key.
const NonceBytes = 24

// Seal encrypts-and-authenticates plaintext bytes under key with a fresh
// random nonce.
func Seal(plaintext []byte, key domain.SharedSecret) (domain.Envelope, error) {
	var nonce [NonceBytes]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return domain.Envelope{}, err
	}
	k := [32]byte(key)
	ct := secretbox.Seal(nil, plaintext, &nonce, &k)
	return domain.Envelope{Nonce: nonce[:], Cipher: ct}, nil
}

// Open authenticates and decrypts an envelope. Wrong key, corrupted
// ciphertext and nonce tampering all collapse to ErrDecryptionFailed.
func Open(env domain.Envelope, key domain.SharedSecret) ([]byte, error) {
	if len(env.Nonce) != NonceBytes {
		return nil, domain.ErrDecryptionFailed
	}
	var nonce [NonceBytes]byte
	copy(nonce[:], env.Nonce)
	k := [32]byte(key)
	pt, ok := secretbox.Open(nil, env.Cipher, &nonce, &k)
	if !ok {
		return nil, domain.ErrDecryptionFailed
	}
	return pt, nil
}

// Encrypt seals a UTF-8 string. Short text only in practice; no length limit
// is enforced here.
func Encrypt(plaintext string, key domain.SharedSecret) (domain.Envelope, error) {
	return Seal([]byte(plaintext), key)
}

// Decrypt opens an envelope back into a string.
func Decrypt(env domain.Envelope, key domain.SharedSecret) (string, error) {
	pt, err := Open(env, key)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
