package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/nacl/box"

	"github.com/Talha76/Together/internal/domain"
)

// MinCodeLength is the shortest shared code accepted for derivation.
const MinCodeLength = 6

const (
	roomIDContext        = "together/room/v1"
	participantIDContext = "together/participant/v1"
)

// DeriveKeyPair turns a shared code into a deterministic X25519 key pair:
// the code is hashed to a 32-byte seed and the seed drives key generation.
// Same code, same pair, on any machine, with no stored state.
func DeriveKeyPair(code string) (domain.KeyPair, error) {
	if !utf8.ValidString(code) {
		return domain.KeyPair{}, domain.ErrCodeNotUTF8
	}
	if utf8.RuneCountInString(strings.TrimSpace(code)) < MinCodeLength {
		return domain.KeyPair{}, domain.ErrCodeTooShort
	}

	// SHA-256 output is exactly the 32 bytes box key generation consumes.
	seed := sha256.Sum256([]byte(code))
	pub, priv, err := box.GenerateKey(bytes.NewReader(seed[:]))
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: *pub, Secret: *priv}, nil
}

// Agree computes the X25519 shared secret between a secret key and a peer
// public key. In the code-based flow both sides pass their own public key,
// making the agreement reflexive.
func Agree(secret, peerPublic [32]byte) domain.SharedSecret {
	var shared [32]byte
	box.Precompute(&shared, &peerPublic, &secret)
	return domain.SharedSecret(shared)
}

// SecretFromCode derives the key pair from code and folds it into the shared
// secret in one step. This is the path both peers take.
func SecretFromCode(code string) (domain.SharedSecret, error) {
	kp, err := DeriveKeyPair(code)
	if err != nil {
		return domain.SharedSecret{}, err
	}
	return Agree(kp.Secret, kp.Public), nil
}

// RoomIDFromSecret maps the shared secret to the logical room both peers
// meet in. The relay sees only this hash, never the secret.
func RoomIDFromSecret(s domain.SharedSecret) domain.RoomID {
	sum := sha256.Sum256(append([]byte(roomIDContext), s.Slice()...))
	return domain.RoomID(hex.EncodeToString(sum[:16]))
}

// ParticipantIDFor derives a stable participant id from the pairing and the
// display name. The same human rejoining maps to the same id, so a rejoin
// never double-occupies a capacity slot.
func ParticipantIDFor(s domain.SharedSecret, displayName string) domain.ParticipantID {
	h := sha256.New()
	h.Write([]byte(participantIDContext))
	h.Write(s.Slice())
	h.Write([]byte(displayName))
	return domain.ParticipantID(hex.EncodeToString(h.Sum(nil)[:16]))
}
