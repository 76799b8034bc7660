// Package store persists the local pairing: the relay URL, the display name
// and the shared secret derived at first join. The secret is sealed under a
// passphrase-derived key before it touches disk, so the file alone is
// useless.
package store
