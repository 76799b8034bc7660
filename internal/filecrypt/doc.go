// Package filecrypt encrypts and decrypts arbitrarily large payloads in
// fixed-size chunks under the shared secret.
//
// All chunk work runs on a Pipeline: a background worker owned by whoever
// constructed it, with an explicit Close. Peak memory is bounded by one chunk
// regardless of payload size, progress is reported per chunk, and the
// caller's context is checked at every chunk boundary so cancellation takes
// effect within one chunk-processing interval.
package filecrypt
