// Package room implements the two-party admission, presence and heartbeat
// protocol on top of a RoomStore backend.
//
// A Coordinator belongs to one session. It walks the participant through
// NotJoined -> Joining -> Joined and on to Evicted or Left, keeps the slot
// alive with periodic heartbeats, and applies the staleness filter to every
// membership snapshot so a silent peer frees its slot after the inactivity
// timeout.
package room
