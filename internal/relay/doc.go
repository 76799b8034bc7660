// Package relay is the HTTP and websocket client for the rendezvous server.
//
// One Client implements all three collaborator contracts the core consumes:
// the room store (join/heartbeat/leave/participants), the message channel
// (send plus a websocket subscription delivering envelope and presence
// frames), and the blob transport (store/retrieve with progress callbacks).
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Admission conflicts map back to domain.ErrRoomFull, missing
// participants to domain.ErrNotJoined and unknown links to
// domain.ErrBlobNotFound; other non-2xx statuses are returned as errors with
// the method, path and status text to aid diagnostics.
package relay
