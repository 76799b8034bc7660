package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Talha76/Together/internal/crypto"
	"github.com/Talha76/Together/internal/domain"
	"github.com/Talha76/Together/internal/filecrypt"
	"github.com/Talha76/Together/internal/room"
	"github.com/Talha76/Together/internal/util/memzero"
)

// Config wires a Session to its collaborators. Store, Channel and Blobs are
// usually the same relay client; tests substitute fakes.
type Config struct {
	Store   domain.RoomStore
	Channel domain.MessageChannel
	Blobs   domain.BlobTransport

	// HeartbeatInterval and InactivityTimeout default to the room package's
	// values; the timeout must stay at least twice the interval.
	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration

	// ChunkSize tunes file encryption; zero means filecrypt.DefaultChunkSize.
	ChunkSize int

	// Clock is the time source, for tests.
	Clock func() time.Time
}

// Session is one end of an encrypted two-party room.
type Session struct {
	cfg    Config
	secret domain.SharedSecret
	roomID domain.RoomID
	selfID domain.ParticipantID
	name   string
	rejoin bool

	coord    *room.Coordinator
	pipeline *filecrypt.Pipeline

	events      chan Event
	done        chan struct{}
	cancel      context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once
}

// Dial derives the shared secret from code, joins the room both peers
// compute from it, subscribes to the channel and starts heartbeats.
//
// Validation failures (short code) and ErrRoomFull surface before any
// session state exists; the caller has nothing to clean up.
func Dial(ctx context.Context, cfg Config, code, displayName string) (*Session, error) {
	secret, err := crypto.SecretFromCode(code)
	if err != nil {
		return nil, err
	}
	return DialSecret(ctx, cfg, secret, displayName)
}

// DialSecret joins with an already-derived secret, the path taken when the
// pairing was persisted locally.
func DialSecret(ctx context.Context, cfg Config, secret domain.SharedSecret, displayName string) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	roomID := crypto.RoomIDFromSecret(secret)
	selfID := crypto.ParticipantIDFor(secret, displayName)

	coord := room.New(cfg.Store,
		room.WithIntervals(cfg.HeartbeatInterval, cfg.InactivityTimeout),
		room.WithClock(cfg.Clock),
	)
	res, err := coord.Join(ctx, roomID, selfID, displayName)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		secret:   secret,
		roomID:   roomID,
		selfID:   selfID,
		name:     displayName,
		rejoin:   res.Rejoin,
		coord:    coord,
		pipeline: filecrypt.NewPipeline(),
		events:   make(chan Event, 32),
		done:     make(chan struct{}),
	}

	// The subscription and heartbeats live as long as the session, not as
	// long as the dial call.
	sctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	unsub, err := cfg.Channel.Subscribe(sctx, roomID, domain.ChannelEvents{
		OnEnvelope: s.onEnvelope,
		OnPresence: s.onPresence,
	})
	if err != nil {
		_ = coord.Leave(ctx)
		cancel()
		s.pipeline.Close()
		return nil, err
	}
	s.unsubscribe = unsub

	coord.StartHeartbeat(sctx)
	return s, nil
}

// RoomID reports the logical room identifier shared with the peer.
func (s *Session) RoomID() domain.RoomID { return s.roomID }

// SelfID reports the local stable participant id.
func (s *Session) SelfID() domain.ParticipantID { return s.selfID }

// Rejoined reports whether the join reclaimed an existing slot for this
// participant id. Another process with the same pairing may still be
// heartbeating that slot, in which case leaving it would evict them both.
func (s *Session) Rejoined() bool { return s.rejoin }

// SecretFingerprint returns a short fingerprint of the shared secret for
// out-of-band comparison.
func (s *Session) SecretFingerprint() string { return crypto.Fingerprint(s.secret.Slice()) }

// Events is the stream of decrypted incoming messages, presence changes and
// the terminal eviction event. The channel itself stays open; Done signals
// the end of the session.
func (s *Session) Events() <-chan Event { return s.events }

// Done closes when the session has torn down, after Leave or eviction.
func (s *Session) Done() <-chan struct{} { return s.done }

// SendText seals text under the shared secret and posts it to the room.
func (s *Session) SendText(ctx context.Context, text string) error {
	if s.closed() {
		return domain.ErrSessionClosed
	}
	env, err := crypto.Encrypt(text, s.secret)
	if err != nil {
		return err
	}
	return s.cfg.Channel.Send(ctx, s.wireEnvelope(domain.KindText, env))
}

// SendFile encrypts src chunk by chunk, stores the chunk set as one opaque
// blob, and sends the peer an encrypted manifest pointing at it. Progress
// covers both phases: encryption maps to 0-50, upload to 50-100.
// Cancellation at any chunk or transfer boundary surfaces as ctx.Err.
func (s *Session) SendFile(ctx context.Context, name string, src io.Reader, size int64, onProgress domain.ProgressFunc) error {
	if s.closed() {
		return domain.ErrSessionClosed
	}

	set, err := s.pipeline.EncryptStream(ctx, src, size, s.secret, s.cfg.ChunkSize, scale(onProgress, 0, 50))
	if err != nil {
		return err
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return err
	}
	link, err := s.cfg.Blobs.Store(ctx, payload, name, scale(onProgress, 50, 100))
	if err != nil {
		return fmt.Errorf("store file blob: %w", err)
	}

	manifest, err := json.Marshal(domain.FileManifest{Link: link, Name: name, Size: size})
	if err != nil {
		return err
	}
	env, err := crypto.Seal(manifest, s.secret)
	if err != nil {
		return err
	}
	return s.cfg.Channel.Send(ctx, s.wireEnvelope(domain.KindFile, env))
}

// FetchFile retrieves and decrypts an offered file. Retrieval maps to
// progress 0-50, decryption to 50-100. A single tampered chunk fails the
// whole fetch with ErrDecryptionFailed.
func (s *Session) FetchFile(ctx context.Context, offer FileOffer, onProgress domain.ProgressFunc) ([]byte, error) {
	payload, err := s.cfg.Blobs.Retrieve(ctx, offer.Link, scale(onProgress, 0, 50))
	if err != nil {
		return nil, err
	}
	var set domain.FileChunkSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return nil, fmt.Errorf("decode chunk set: %w", err)
	}
	return s.pipeline.DecryptStream(ctx, set, s.secret, scale(onProgress, 50, 100))
}

// Leave releases the room slot, stops heartbeats and closes the event
// stream. Safe to call after eviction.
func (s *Session) Leave(ctx context.Context) error {
	err := s.coord.Leave(ctx)
	s.teardown()
	return err
}

// --- internals ---

func (s *Session) wireEnvelope(kind domain.MessageKind, env domain.Envelope) domain.WireEnvelope {
	return domain.WireEnvelope{
		ID:        uuid.NewString(),
		Room:      s.roomID,
		From:      s.selfID,
		Kind:      kind,
		Nonce:     env.Nonce,
		Cipher:    env.Cipher,
		Timestamp: s.cfg.Clock().Unix(),
	}
}

func (s *Session) onEnvelope(env domain.WireEnvelope) {
	ev := Event{
		From:      env.From,
		Self:      env.From == s.selfID,
		Timestamp: time.Unix(env.Timestamp, 0),
	}

	plaintext, err := crypto.Open(env.Envelope(), s.secret)
	if err != nil {
		// Unreadable, not fatal: retrying the same key and bytes cannot
		// succeed, so surface and move on.
		ev.Kind = EventUnreadable
		s.emit(ev)
		return
	}

	switch env.Kind {
	case domain.KindFile:
		var m domain.FileManifest
		if err := json.Unmarshal(plaintext, &m); err != nil {
			ev.Kind = EventUnreadable
			s.emit(ev)
			return
		}
		ev.Kind = EventFile
		ev.File = &FileOffer{Link: m.Link, Name: m.Name, Size: m.Size}
	default:
		ev.Kind = EventText
		ev.Text = string(plaintext)
	}
	s.emit(ev)
}

func (s *Session) onPresence(snapshot []domain.Participant) {
	active, evicted := s.coord.ObservePresence(snapshot)
	if evicted {
		s.emit(Event{Kind: EventEvicted, Timestamp: s.cfg.Clock()})
		s.teardown()
		return
	}
	s.emit(Event{Kind: EventPresence, Participants: active, Timestamp: s.cfg.Clock()})
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.cancel()
		close(s.done)
		s.pipeline.Close()
		memzero.Zero(s.secret[:])
	})
}

// scale maps a sub-operation's 0-100 progress into the [lo, hi] segment of
// the caller's overall progress.
func scale(onProgress domain.ProgressFunc, lo, hi int) domain.ProgressFunc {
	if onProgress == nil {
		return nil
	}
	return func(pct int) {
		onProgress(lo + pct*(hi-lo)/100)
	}
}
