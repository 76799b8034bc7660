package relayserver

import (
	"sort"
	"sync"
	"time"

	"github.com/Talha76/Together/internal/domain"
)

// roomCapacity is the hard participant cap per room.
const roomCapacity = 2

// Registry is the authoritative in-memory participant-set store. All
// admission decisions happen under one mutex, which is what makes the
// check-then-insert race-free when two strangers see "one slot free" at the
// same moment.
type Registry struct {
	mu      sync.Mutex
	rooms   map[domain.RoomID]map[domain.ParticipantID]domain.Participant
	timeout time.Duration
	now     func() time.Time
}

// NewRegistry builds a Registry with the given inactivity timeout.
func NewRegistry(timeout time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		rooms:   make(map[domain.RoomID]map[domain.ParticipantID]domain.Participant),
		timeout: timeout,
		now:     now,
	}
}

// Join admits p into room, creating the room on first join. Stale entries
// are vacated before the capacity check; a returning participant id is a
// rejoin and never counts as a new occupant.
func (g *Registry) Join(room domain.RoomID, p domain.Participant) (domain.JoinResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.rooms[room]
	if set == nil {
		set = make(map[domain.ParticipantID]domain.Participant)
		g.rooms[room] = set
	}
	g.dropStaleLocked(set)

	now := g.now().Unix()
	if existing, ok := set[p.ID]; ok {
		existing.LastSeen = now
		if p.DisplayName != "" {
			existing.DisplayName = p.DisplayName
		}
		set[p.ID] = existing
		return domain.JoinResult{Accepted: true, Rejoin: true}, nil
	}
	if len(set) >= roomCapacity {
		return domain.JoinResult{}, domain.ErrRoomFull
	}
	p.JoinedAt = now
	p.LastSeen = now
	set[p.ID] = p
	return domain.JoinResult{Accepted: true}, nil
}

// Heartbeat refreshes LastSeen. A participant the room no longer holds
// (left, swept, or never joined) gets ErrNotJoined so its client learns it
// lost the slot.
func (g *Registry) Heartbeat(room domain.RoomID, id domain.ParticipantID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.rooms[room]
	p, ok := set[id]
	if !ok {
		return domain.ErrNotJoined
	}
	p.LastSeen = g.now().Unix()
	set[id] = p
	return nil
}

// Leave removes the participant and deletes the room once empty.
func (g *Registry) Leave(room domain.RoomID, id domain.ParticipantID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.rooms[room]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(g.rooms, room)
	}
}

// Participants returns the active (non-stale) set ordered by join time.
func (g *Registry) Participants(room domain.RoomID) []domain.Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.participantsLocked(room)
}

func (g *Registry) participantsLocked(room domain.RoomID) []domain.Participant {
	horizon := g.now().Add(-g.timeout).Unix()
	out := make([]domain.Participant, 0, roomCapacity)
	for _, p := range g.rooms[room] {
		if p.LastSeen >= horizon {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt < out[j].JoinedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Sweep removes stale participants everywhere and deletes emptied rooms.
// It returns the ids of rooms whose membership changed, so the caller can
// push fresh presence snapshots.
func (g *Registry) Sweep() []domain.RoomID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var changed []domain.RoomID
	for room, set := range g.rooms {
		if g.dropStaleLocked(set) > 0 {
			changed = append(changed, room)
		}
		if len(set) == 0 {
			delete(g.rooms, room)
		}
	}
	return changed
}

// RoomCount reports how many rooms currently exist.
func (g *Registry) RoomCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) dropStaleLocked(set map[domain.ParticipantID]domain.Participant) int {
	horizon := g.now().Add(-g.timeout).Unix()
	dropped := 0
	for id, p := range set {
		if p.LastSeen < horizon {
			delete(set, id)
			dropped++
		}
	}
	return dropped
}
