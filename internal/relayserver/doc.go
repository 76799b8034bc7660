// Package relayserver is the rendezvous service between two paired clients.
//
// It holds no key material and sees no plaintext: rooms are opaque hashes,
// messages are sealed envelopes, blobs are ciphertext. The server enforces
// the two-participant capacity under a single lock, sweeps stale
// participants and expired blobs, and fans envelopes and presence snapshots
// out over per-room websockets.
package relayserver
