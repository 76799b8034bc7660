package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Talha76/Together/internal/domain"
)

const (
	// DefaultHeartbeatInterval is how often a joined participant refreshes
	// its LastSeen.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultInactivityTimeout must stay at least twice the heartbeat
	// interval: one lost tick is absorbed, a second one evicts.
	DefaultInactivityTimeout = 75 * time.Second
)

// State is the participant's position in the room lifecycle.
type State int

const (
	StateNotJoined State = iota
	StateJoining
	StateJoined
	StateEvicted
	StateLeft
)

// String returns a readable form of the state.
func (s State) String() string {
	switch s {
	case StateNotJoined:
		return "not-joined"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateEvicted:
		return "evicted"
	case StateLeft:
		return "left"
	}
	return "unknown"
}

// Option tunes a Coordinator.
type Option func(*Coordinator)

// WithIntervals overrides the heartbeat interval and inactivity timeout.
func WithIntervals(heartbeat, timeout time.Duration) Option {
	return func(c *Coordinator) {
		if heartbeat > 0 {
			c.heartbeatEvery = heartbeat
		}
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator enforces the two-party room protocol for a single local
// participant.
type Coordinator struct {
	store          domain.RoomStore
	heartbeatEvery time.Duration
	timeout        time.Duration
	now            func() time.Time

	mu     sync.Mutex
	state  State
	room   domain.RoomID
	self   domain.ParticipantID
	stopHB func()
}

// New returns a Coordinator over the given store.
func New(store domain.RoomStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:          store,
		heartbeatEvery: DefaultHeartbeatInterval,
		timeout:        DefaultInactivityTimeout,
		now:            time.Now,
		state:          StateNotJoined,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State reports the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InactivityTimeout reports the staleness horizon applied to snapshots.
func (c *Coordinator) InactivityTimeout() time.Duration { return c.timeout }

// Join attempts admission to room as id. The store performs the conditional
// check-then-insert atomically; a full room surfaces as domain.ErrRoomFull
// before any session state is established.
func (c *Coordinator) Join(ctx context.Context, room domain.RoomID, id domain.ParticipantID, displayName string) (domain.JoinResult, error) {
	c.mu.Lock()
	if c.state == StateJoined || c.state == StateJoining {
		c.mu.Unlock()
		return domain.JoinResult{}, domain.ErrSessionClosed
	}
	c.state = StateJoining
	c.mu.Unlock()

	nowUnix := c.now().Unix()
	res, err := c.store.Join(ctx, room, domain.Participant{
		ID:          id,
		DisplayName: displayName,
		JoinedAt:    nowUnix,
		LastSeen:    nowUnix,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateNotJoined
		return domain.JoinResult{}, err
	}
	c.state = StateJoined
	c.room = room
	c.self = id
	return res, nil
}

// StartHeartbeat begins the periodic LastSeen refresh. It stops when ctx is
// cancelled, when Leave runs, or when the store reports the participant gone.
// Heartbeats are idempotent and order-insensitive, so a failed tick is only
// logged and the next tick retried.
func (c *Coordinator) StartHeartbeat(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateJoined || c.stopHB != nil {
		c.mu.Unlock()
		return
	}
	hbCtx, cancel := context.WithCancel(ctx)
	c.stopHB = cancel
	room, self := c.room, c.self
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := c.store.Heartbeat(hbCtx, room, self); err != nil {
					if hbCtx.Err() != nil {
						return
					}
					slog.Debug("heartbeat failed", "room", room, "participant", self, "err", err)
				}
			}
		}
	}()
}

// Active filters a membership snapshot down to live participants: anyone
// whose LastSeen is older than the inactivity timeout is logically absent
// even if cleanup has not removed it yet.
func (c *Coordinator) Active(snapshot []domain.Participant) []domain.Participant {
	horizon := c.now().Add(-c.timeout).Unix()
	active := make([]domain.Participant, 0, len(snapshot))
	for _, p := range snapshot {
		if p.LastSeen >= horizon {
			active = append(active, p)
		}
	}
	return active
}

// ObservePresence applies the staleness filter to an authoritative snapshot
// and detects eviction: once joined, a snapshot without the local
// participant moves the coordinator to StateEvicted. The second return is
// true exactly when that transition happens.
func (c *Coordinator) ObservePresence(snapshot []domain.Participant) ([]domain.Participant, bool) {
	active := c.Active(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateJoined {
		return active, false
	}
	for _, p := range active {
		if p.ID == c.self {
			return active, false
		}
	}
	c.state = StateEvicted
	if c.stopHB != nil {
		c.stopHB()
		c.stopHB = nil
	}
	return active, true
}

// Leave releases the room slot and stops heartbeats. Leaving twice, or after
// eviction, releases nothing further but is not an error for the caller that
// is tearing down anyway.
func (c *Coordinator) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateJoined {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLeft
	if c.stopHB != nil {
		c.stopHB()
		c.stopHB = nil
	}
	room, self := c.room, c.self
	c.mu.Unlock()

	return c.store.Leave(ctx, room, self)
}
