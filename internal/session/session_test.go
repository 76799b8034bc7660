package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Talha76/Together/internal/domain"
)

// fakeRelay is an in-process stand-in for the relay: room store, message
// channel and blob transport in one, shared by every session under test.
// Dispatch is synchronous, so tests observe a deterministic delivery order.
type fakeRelay struct {
	now func() time.Time

	mu    sync.Mutex
	rooms map[domain.RoomID]map[domain.ParticipantID]domain.Participant
	subs  map[domain.RoomID]map[string]domain.ChannelEvents
	blobs map[domain.BlobLink][]byte
}

func newFakeRelay(now func() time.Time) *fakeRelay {
	return &fakeRelay{
		now:   now,
		rooms: make(map[domain.RoomID]map[domain.ParticipantID]domain.Participant),
		subs:  make(map[domain.RoomID]map[string]domain.ChannelEvents),
		blobs: make(map[domain.BlobLink][]byte),
	}
}

const fakeTimeout = 75 * time.Second

func (f *fakeRelay) Join(_ context.Context, room domain.RoomID, p domain.Participant) (domain.JoinResult, error) {
	f.mu.Lock()
	members, ok := f.rooms[room]
	if !ok {
		members = make(map[domain.ParticipantID]domain.Participant)
		f.rooms[room] = members
	}
	horizon := f.now().Add(-fakeTimeout).Unix()
	for id, m := range members {
		if m.LastSeen < horizon {
			delete(members, id)
		}
	}
	if existing, ok := members[p.ID]; ok {
		existing.LastSeen = p.LastSeen
		members[p.ID] = existing
		f.mu.Unlock()
		f.broadcastPresence(room)
		return domain.JoinResult{Accepted: true, Rejoin: true}, nil
	}
	if len(members) >= 2 {
		f.mu.Unlock()
		return domain.JoinResult{}, domain.ErrRoomFull
	}
	members[p.ID] = p
	f.mu.Unlock()
	f.broadcastPresence(room)
	return domain.JoinResult{Accepted: true}, nil
}

func (f *fakeRelay) Heartbeat(_ context.Context, room domain.RoomID, id domain.ParticipantID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rooms[room][id]
	if !ok {
		return domain.ErrNotJoined
	}
	p.LastSeen = f.now().Unix()
	f.rooms[room][id] = p
	return nil
}

func (f *fakeRelay) Leave(_ context.Context, room domain.RoomID, id domain.ParticipantID) error {
	f.mu.Lock()
	delete(f.rooms[room], id)
	f.mu.Unlock()
	f.broadcastPresence(room)
	return nil
}

func (f *fakeRelay) Participants(_ context.Context, room domain.RoomID) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Participant, 0, len(f.rooms[room]))
	for _, p := range f.rooms[room] {
		out = append(out, p)
	}
	return out, nil
}

// evict simulates the relay's stale sweep removing a participant.
func (f *fakeRelay) evict(room domain.RoomID, id domain.ParticipantID) {
	f.mu.Lock()
	delete(f.rooms[room], id)
	f.mu.Unlock()
	f.broadcastPresence(room)
}

func (f *fakeRelay) Send(_ context.Context, env domain.WireEnvelope) error {
	for _, ev := range f.snapshotSubs(env.Room) {
		if ev.OnEnvelope != nil {
			ev.OnEnvelope(env)
		}
	}
	return nil
}

func (f *fakeRelay) Subscribe(_ context.Context, room domain.RoomID, ev domain.ChannelEvents) (func(), error) {
	key := uuid.NewString()
	f.mu.Lock()
	if f.subs[room] == nil {
		f.subs[room] = make(map[string]domain.ChannelEvents)
	}
	f.subs[room][key] = ev
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs[room], key)
		f.mu.Unlock()
	}, nil
}

func (f *fakeRelay) broadcastPresence(room domain.RoomID) {
	snapshot, _ := f.Participants(context.Background(), room)
	for _, ev := range f.snapshotSubs(room) {
		if ev.OnPresence != nil {
			ev.OnPresence(snapshot)
		}
	}
}

func (f *fakeRelay) snapshotSubs(room domain.RoomID) []domain.ChannelEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChannelEvents, 0, len(f.subs[room]))
	for _, ev := range f.subs[room] {
		out = append(out, ev)
	}
	return out
}

func (f *fakeRelay) Store(_ context.Context, data []byte, _ string, onProgress domain.ProgressFunc) (domain.BlobLink, error) {
	link := domain.BlobLink(uuid.NewString())
	f.mu.Lock()
	f.blobs[link] = append([]byte(nil), data...)
	f.mu.Unlock()
	if onProgress != nil {
		onProgress(100)
	}
	return link, nil
}

func (f *fakeRelay) Retrieve(_ context.Context, link domain.BlobLink, onProgress domain.ProgressFunc) ([]byte, error) {
	f.mu.Lock()
	data, ok := f.blobs[link]
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	if onProgress != nil {
		onProgress(100)
	}
	return append([]byte(nil), data...), nil
}

var (
	_ domain.RoomStore      = (*fakeRelay)(nil)
	_ domain.MessageChannel = (*fakeRelay)(nil)
	_ domain.BlobTransport  = (*fakeRelay)(nil)
)

func testConfig(relay *fakeRelay) Config {
	return Config{
		Store:     relay,
		Channel:   relay,
		Blobs:     relay,
		ChunkSize: 1024,
		Clock:     relay.now,
	}
}

func waitEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

const testCode = "correct-horse-battery"

func TestDialRejectsShortCode(t *testing.T) {
	relay := newFakeRelay(time.Now)
	if _, err := Dial(context.Background(), testConfig(relay), "tiny", "alice"); !errors.Is(err, domain.ErrCodeTooShort) {
		t.Fatalf("Dial with short code: got %v, want ErrCodeTooShort", err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}
	defer bob.Leave(ctx)

	if alice.RoomID() != bob.RoomID() {
		t.Fatalf("same code derived different rooms: %s vs %s", alice.RoomID(), bob.RoomID())
	}
	if alice.SelfID() == bob.SelfID() {
		t.Fatal("distinct names derived the same participant id")
	}

	// Alice sees Bob arrive.
	ev := waitEvent(t, alice, EventPresence)
	if len(ev.Participants) != 2 {
		t.Fatalf("presence after bob joined: got %d participants, want 2", len(ev.Participants))
	}

	if err := alice.SendText(ctx, "hello bob"); err != nil {
		t.Fatalf("send: %v", err)
	}

	got := waitEvent(t, bob, EventText)
	if got.Text != "hello bob" {
		t.Fatalf("bob received %q, want %q", got.Text, "hello bob")
	}
	if got.Self {
		t.Error("bob's copy tagged Self")
	}
	if got.From != alice.SelfID() {
		t.Errorf("From = %s, want alice's id %s", got.From, alice.SelfID())
	}

	echo := waitEvent(t, alice, EventText)
	if !echo.Self {
		t.Error("alice's echo not tagged Self")
	}
	if echo.Text != "hello bob" {
		t.Errorf("alice's echo = %q, want %q", echo.Text, "hello bob")
	}
}

func TestFileRoundTrip(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}
	defer bob.Leave(ctx)

	original := bytes.Repeat([]byte("together"), 700) // several chunks at 1 KiB

	var sendProgress []int
	err = alice.SendFile(ctx, "notes.txt", bytes.NewReader(original), int64(len(original)), func(pct int) {
		sendProgress = append(sendProgress, pct)
	})
	if err != nil {
		t.Fatalf("send file: %v", err)
	}
	if len(sendProgress) == 0 || sendProgress[len(sendProgress)-1] != 100 {
		t.Fatalf("send progress %v should end at 100", sendProgress)
	}
	for i := 1; i < len(sendProgress); i++ {
		if sendProgress[i] < sendProgress[i-1] {
			t.Fatalf("send progress went backwards: %v", sendProgress)
		}
	}

	offer := waitEvent(t, bob, EventFile)
	if offer.File == nil {
		t.Fatal("file event carries no offer")
	}
	if offer.File.Name != "notes.txt" || offer.File.Size != int64(len(original)) {
		t.Fatalf("offer = %+v, want name notes.txt size %d", offer.File, len(original))
	}

	var fetchProgress []int
	data, err := bob.FetchFile(ctx, *offer.File, func(pct int) {
		fetchProgress = append(fetchProgress, pct)
	})
	if err != nil {
		t.Fatalf("fetch file: %v", err)
	}
	if !bytes.Equal(data, original) {
		t.Fatalf("fetched %d bytes differ from original %d bytes", len(data), len(original))
	}
	if len(fetchProgress) == 0 || fetchProgress[len(fetchProgress)-1] != 100 {
		t.Fatalf("fetch progress %v should end at 100", fetchProgress)
	}
}

func TestFetchTamperedBlobFails(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}
	defer bob.Leave(ctx)

	original := bytes.Repeat([]byte("x"), 2048)
	if err := alice.SendFile(ctx, "x.bin", bytes.NewReader(original), int64(len(original)), nil); err != nil {
		t.Fatalf("send file: %v", err)
	}
	offer := waitEvent(t, bob, EventFile)

	relay.mu.Lock()
	blob := relay.blobs[offer.File.Link]
	// Flip one ciphertext bit inside the stored chunk set.
	blob[len(blob)/2] ^= 0x01
	relay.mu.Unlock()

	if _, err := bob.FetchFile(ctx, *offer.File, nil); err == nil {
		t.Fatal("fetch of tampered blob succeeded")
	}
}

func TestThirdJoinRejected(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}
	defer bob.Leave(ctx)

	if _, err := Dial(ctx, testConfig(relay), testCode, "mallory"); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("third dial: got %v, want ErrRoomFull", err)
	}
}

func TestEvictionEndsSession(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}

	relay.evict(bob.RoomID(), bob.SelfID())

	waitEvent(t, bob, EventEvicted)
	select {
	case <-bob.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after eviction")
	}

	if err := bob.SendText(ctx, "too late"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("send after eviction: got %v, want ErrSessionClosed", err)
	}
	// Leave after eviction is a no-op, not an error.
	if err := bob.Leave(ctx); err != nil {
		t.Fatalf("leave after eviction: %v", err)
	}
}

func TestLeaveReleasesSlot(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	bob, err := Dial(ctx, testConfig(relay), testCode, "bob")
	if err != nil {
		t.Fatalf("bob dial: %v", err)
	}
	if err := bob.Leave(ctx); err != nil {
		t.Fatalf("bob leave: %v", err)
	}
	if err := bob.SendText(ctx, "gone"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("send after leave: got %v, want ErrSessionClosed", err)
	}

	carol, err := Dial(ctx, testConfig(relay), testCode, "carol")
	if err != nil {
		t.Fatalf("carol dial after bob left: %v", err)
	}
	defer carol.Leave(ctx)
}

func TestRejoinReported(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	first, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer first.Leave(ctx)
	if first.Rejoined() {
		t.Error("fresh join reported as rejoin")
	}

	// A second process with the same pairing reclaims the same slot.
	second, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("second dial: %v", err)
	}
	if !second.Rejoined() {
		t.Error("same participant id dialing again not reported as rejoin")
	}

	// A caller that checks Rejoined and skips Leave keeps the shared slot
	// alive for the longer-lived process.
	ps, err := relay.Participants(ctx, first.RoomID())
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("rejoin occupied %d slots, want 1", len(ps))
	}
}

func TestSendFileCancelled(t *testing.T) {
	relay := newFakeRelay(time.Now)

	alice, err := Dial(context.Background(), testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := bytes.Repeat([]byte("y"), 4096)
	err = alice.SendFile(ctx, "y.bin", bytes.NewReader(data), int64(len(data)), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled send file: got %v, want context.Canceled", err)
	}
}

func TestUnreadableEnvelopeSurfaced(t *testing.T) {
	relay := newFakeRelay(time.Now)
	ctx := context.Background()

	alice, err := Dial(ctx, testConfig(relay), testCode, "alice")
	if err != nil {
		t.Fatalf("alice dial: %v", err)
	}
	defer alice.Leave(ctx)

	// A frame sealed under some other key must surface as unreadable, with
	// no partial plaintext attached.
	_ = relay.Send(ctx, domain.WireEnvelope{
		ID:        uuid.NewString(),
		Room:      alice.RoomID(),
		From:      "stranger",
		Kind:      domain.KindText,
		Nonce:     bytes.Repeat([]byte{0x42}, 24),
		Cipher:    []byte("not a real ciphertext"),
		Timestamp: time.Now().Unix(),
	})

	ev := waitEvent(t, alice, EventUnreadable)
	if ev.Text != "" {
		t.Fatalf("unreadable event leaked text %q", ev.Text)
	}
}
