package domain

import "errors"

var (
	// ErrCodeTooShort is returned before any cryptographic work when the
	// shared code fails the minimum-length policy.
	ErrCodeTooShort = errors.New("together: code must be at least 6 characters")

	// ErrCodeNotUTF8 is returned when the shared code is not valid UTF-8.
	ErrCodeNotUTF8 = errors.New("together: code must be valid UTF-8")

	// ErrDecryptionFailed covers wrong key, corrupted ciphertext and
	// nonce/ciphertext mismatch alike. No partial plaintext is ever returned.
	ErrDecryptionFailed = errors.New("together: message authentication failed")

	// ErrChunkSetMalformed is returned when a chunk set's indexes do not form
	// the complete sequence its metadata promises.
	ErrChunkSetMalformed = errors.New("together: chunk set indexes are missing or duplicated")

	// ErrRoomFull rejects admission when two other participants are active.
	ErrRoomFull = errors.New("together: room already has two active participants")

	// ErrNotJoined is returned for heartbeat or send attempts by a
	// participant the room no longer holds.
	ErrNotJoined = errors.New("together: participant is not joined to the room")

	// ErrEvicted signals that an authoritative membership snapshot no longer
	// contains the local participant. It ends the session asynchronously,
	// unlike ErrRoomFull which happens at admission.
	ErrEvicted = errors.New("together: evicted from room")

	// ErrBlobNotFound is the terminal (non-retryable) blob transport failure.
	ErrBlobNotFound = errors.New("together: blob not found")

	// ErrSessionClosed is returned by operations on a session that has left
	// its room or been evicted.
	ErrSessionClosed = errors.New("together: session is closed")

	// ErrWrongPassphrase is returned when the local pairing file cannot be
	// opened: wrong passphrase and corrupted ciphertext are indistinguishable.
	ErrWrongPassphrase = errors.New("together: wrong passphrase or corrupted pairing file")

	// ErrNoPairing is returned when no pairing has been saved yet.
	ErrNoPairing = errors.New("together: no saved pairing, join a room first")
)
