// Package session exposes the application-facing surface of the encrypted
// transport: derive-and-join, text and file send, a stream of decrypted
// incoming events, and teardown.
//
// A Session owns everything with a lifetime: the crypto pipeline, the
// heartbeat loop and the channel subscription all start at Dial and stop at
// Leave (or on eviction). Nothing here is a process-wide singleton; two
// sessions in one process do not interfere.
package session
