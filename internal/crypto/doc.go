// Package crypto exposes the primitives used by Together.
//
// Contents
//
//   - Deterministic X25519 key derivation from a shared code and the
//     reflexive agreement that yields the shared secret (DeriveKeyPair,
//     Agree, SecretFromCode)
//   - Authenticated encryption of short payloads under the shared secret
//     (Encrypt, Decrypt and the byte-slice variants used for file chunks)
//   - Deterministic room and participant identifiers (RoomIDFromSecret,
//     ParticipantIDFor)
//   - Short fingerprints for out-of-band comparison (Fingerprint)
//
// # Notes
//
// Both peers derive the identical key pair from the same code, so "agreement"
// with the peer public key is self-agreement. That is the intended
// shared-password construction: it provides no forward secrecy across
// sessions, and anyone who knows the code can open the channel.
package crypto
