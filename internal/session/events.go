package session

import (
	"time"

	"github.com/Talha76/Together/internal/domain"
)

// EventKind discriminates entries on the session's event stream.
type EventKind int

const (
	// EventText is a decrypted chat message.
	EventText EventKind = iota
	// EventFile is a decrypted file offer; fetch it with Session.FetchFile.
	EventFile
	// EventPresence reports the active participant set after a membership
	// change.
	EventPresence
	// EventUnreadable marks an envelope that failed authentication. The
	// payload is discarded, never partially surfaced.
	EventUnreadable
	// EventEvicted ends the session: an authoritative snapshot no longer
	// contains us.
	EventEvicted
)

// FileOffer describes an incoming file: where its encrypted chunk set lives
// and what the sender claims about it. Claims are verified chunk by chunk
// during FetchFile.
type FileOffer struct {
	Link domain.BlobLink
	Name string
	Size int64
}

// Event is one entry on the session's incoming stream.
type Event struct {
	Kind      EventKind
	From      domain.ParticipantID
	Self      bool // true for echoes of our own sends
	Timestamp time.Time

	Text         string
	File         *FileOffer
	Participants []domain.Participant
}
