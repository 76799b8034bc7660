package domain

import "context"

// ProgressFunc reports completion of a long-running operation in whole
// percent, 0 through 100. Implementations must tolerate repeated values.
type ProgressFunc func(percent int)

// RoomStore is the authoritative participant-set backend. Join must be
// conditional against current state, not read-modify-write from a stale local
// copy: two strangers racing for the last slot must not both win.
type RoomStore interface {
	Join(ctx context.Context, room RoomID, p Participant) (JoinResult, error)
	Heartbeat(ctx context.Context, room RoomID, id ParticipantID) error
	Leave(ctx context.Context, room RoomID, id ParticipantID) error
	Participants(ctx context.Context, room RoomID) ([]Participant, error)
}

// ChannelEvents receives pushes from a message-channel subscription.
// Callbacks are invoked sequentially from a single goroutine.
type ChannelEvents struct {
	// OnEnvelope delivers an opaque encrypted envelope, including echoes of
	// the local participant's own sends.
	OnEnvelope func(WireEnvelope)
	// OnPresence delivers a recent (eventually consistent) snapshot of the
	// room's participant set, stale entries included.
	OnPresence func([]Participant)
}

// MessageChannel delivers opaque envelopes in send order per room. Ordering
// across distinct senders is best-effort.
type MessageChannel interface {
	Send(ctx context.Context, env WireEnvelope) error
	// Subscribe starts delivery for room and returns an unsubscribe func.
	// The subscription outlives ctx's deadline only until unsubscribe or
	// ctx cancellation, whichever comes first.
	Subscribe(ctx context.Context, room RoomID, ev ChannelEvents) (func(), error)
}

// BlobTransport is an opaque store-and-retrieve of encrypted blobs by link.
// Transfers are slow, cancellable through ctx, and may fail mid-flight;
// failures surface as errors, never as truncated data.
type BlobTransport interface {
	Store(ctx context.Context, data []byte, name string, onProgress ProgressFunc) (BlobLink, error)
	Retrieve(ctx context.Context, link BlobLink, onProgress ProgressFunc) ([]byte, error)
}
