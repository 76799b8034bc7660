// Package commands defines the together CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - join         Derive the room from a shared code and claim a slot
//   - watch        Stay in the room and print incoming messages and files
//   - send         Encrypt and send a text message
//   - send-file    Encrypt and send a file
//   - fingerprint  Print the pairing fingerprint for out-of-band comparison
//   - leave        Release the room slot
//
// # Implementation
//
// The root command builds the dependency graph (pairing store, relay client)
// before any subcommand runs, so handlers share one app context.
package commands
