// Package main runs the untrusted relay the together clients meet through.
// It holds room membership, fans envelopes out over websockets and stores
// encrypted blobs until they expire. It never sees plaintext or keys; every
// payload passing through is ciphertext sealed under a secret it does not
// have.
//
// HTTP API
//
//	POST /rooms/{room}/join
//	    Admit a participant. 409 room_full when two others are active.
//
//	POST /rooms/{room}/heartbeat
//	    Refresh a participant's slot. 404 not_joined once the slot is gone.
//
//	POST /rooms/{room}/leave
//	    Release the slot.
//
//	GET /rooms/{room}/participants
//	    Current active participant set, ordered by join time.
//
//	POST /rooms/{room}/messages
//	    Broadcast an opaque envelope to the room's subscribers.
//
//	GET /rooms/{room}/ws
//	    Websocket feed of message and presence frames.
//
//	POST /blobs, GET /blobs/{link}
//	    Store and retrieve encrypted blobs by unguessable link.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Participants that stop heartbeating are swept out and subscribers are
//     told through a fresh presence snapshot.
//   - Configuration comes from the environment; see main.go for the knobs.
//   - Prometheus metrics are served on /metrics, liveness on /healthz.
package main
