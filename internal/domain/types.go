package domain

import (
	"encoding/base64"
	"errors"
)

// SharedSecret is the 32-byte symmetric key both peers derive from the shared
// code. It never leaves the local client; only envelopes sealed under it do.
type SharedSecret [32]byte

// Slice returns the secret as a []byte.
func (s SharedSecret) Slice() []byte { return s[:] }

// Encode returns the portable base64 form used for local persistence.
func (s SharedSecret) Encode() string { return base64.StdEncoding.EncodeToString(s[:]) }

// ParseSharedSecret decodes the base64 form produced by Encode.
func ParseSharedSecret(enc string) (SharedSecret, error) {
	var s SharedSecret
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return s, err
	}
	if len(raw) != len(s) {
		return s, errors.New("together: shared secret must be 32 bytes")
	}
	copy(s[:], raw)
	return s, nil
}

// KeyPair is the code-derived X25519 pair. In the code-based flow both peers
// derive the identical pair, so agreement with the "peer" public key is
// reflexive.
type KeyPair struct {
	Public [32]byte
	Secret [32]byte
}

// Envelope is the unit of authenticated encryption: a fresh random 24-byte
// nonce plus XSalsa20-Poly1305 ciphertext. It is opaque to the relay.
type Envelope struct {
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// FileChunk is one independently decryptable slice of a large payload. Index
// is authoritative for reassembly order; array position is not trusted.
type FileChunk struct {
	Index  int    `json:"index"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// FileChunkSet is a large payload split at a fixed boundary before
// encryption. ChunkSize is recorded so decryption never guesses it.
type FileChunkSet struct {
	Chunks       []FileChunk `json:"chunks"`
	ChunkSize    int         `json:"chunk_size"`
	TotalChunks  int         `json:"total_chunks"`
	OriginalSize int64       `json:"original_size"`
}

// RoomID identifies a logical room. Both peers compute the same id from the
// shared secret, so no discovery step is needed.
type RoomID string

// String returns the string form of the room id.
func (r RoomID) String() string { return string(r) }

// ParticipantID is a stable hash of display name and shared secret. The same
// human rejoining is recognised and does not occupy a second capacity slot.
type ParticipantID string

// String returns the string form of the participant id.
func (p ParticipantID) String() string { return string(p) }

// Participant is one entry in a room's participant set. Timestamps are unix
// seconds; a participant whose LastSeen is older than the inactivity timeout
// is logically absent even before cleanup removes it.
type Participant struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"display_name"`
	JoinedAt    int64         `json:"joined_at"`
	LastSeen    int64         `json:"last_seen"`
}

// JoinResult reports the outcome of an accepted admission.
type JoinResult struct {
	Accepted bool `json:"accepted"`
	Rejoin   bool `json:"rejoin"`
}

// MessageKind tags what an envelope's plaintext contains.
type MessageKind string

const (
	// KindText marks an envelope whose plaintext is a chat message.
	KindText MessageKind = "text"
	// KindFile marks an envelope whose plaintext is a JSON FileManifest.
	KindFile MessageKind = "file"
)

// WireEnvelope is what travels through the message channel: an Envelope plus
// the unencrypted routing metadata the relay needs.
type WireEnvelope struct {
	ID        string        `json:"id"`
	Room      RoomID        `json:"room"`
	From      ParticipantID `json:"from"`
	Kind      MessageKind   `json:"kind"`
	Nonce     []byte        `json:"nonce"`
	Cipher    []byte        `json:"cipher"`
	Timestamp int64         `json:"timestamp"`
}

// Envelope returns the authenticated-encryption part of the wire envelope.
func (w WireEnvelope) Envelope() Envelope {
	return Envelope{Nonce: w.Nonce, Cipher: w.Cipher}
}

// BlobLink is the retrieval handle returned by the blob transport.
type BlobLink string

// String returns the string form of the link.
func (b BlobLink) String() string { return string(b) }

// FileManifest is the plaintext of a KindFile envelope: where the encrypted
// chunk set lives and what the file claims to be. The link is useless without
// the shared secret.
type FileManifest struct {
	Link BlobLink `json:"link"`
	Name string   `json:"name"`
	Size int64    `json:"size"`
}
