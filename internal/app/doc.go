// Package app wires application dependencies for the CLI.
//
// It builds the pairing store, relay client and session configuration from
// Config, exposing them via the Wire struct for commands to use.
package app
