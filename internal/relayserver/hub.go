package relayserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Talha76/Together/internal/domain"
	"github.com/Talha76/Together/internal/observability/metrics"
)

// Frame is one typed websocket message pushed to subscribers.
type Frame struct {
	Type         string               `json:"type"` // "message" or "presence"
	Envelope     *domain.WireEnvelope `json:"envelope,omitempty"`
	Participants []domain.Participant `json:"participants,omitempty"`
}

const (
	FrameMessage  = "message"
	FramePresence = "presence"
)

// subscriber owns one websocket connection. Writes go through a buffered
// channel so a slow reader cannot stall the broadcast path; overflow drops
// the connection instead.
type subscriber struct {
	conn *websocket.Conn
	send chan Frame
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// Hub tracks subscribers per room and broadcasts frames to them.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[domain.RoomID]map[*subscriber]struct{}
}

// NewHub returns an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[domain.RoomID]map[*subscriber]struct{}),
	}
}

// ServeWS upgrades the request and pumps frames until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room domain.RoomID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "room", room, "err", err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan Frame, 64)}

	h.mu.Lock()
	set := h.rooms[room]
	if set == nil {
		set = make(map[*subscriber]struct{})
		h.rooms[room] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnectionsActive.WithLabelValues().Inc()
	h.log.Debug("subscriber connected", "room", room)

	defer func() {
		// Remove from the room before closing the channel: Broadcast only
		// sends to subscribers it finds in the map.
		h.drop(room, sub)
		sub.close()
		_ = conn.Close()
		metrics.WSConnectionsActive.WithLabelValues().Dec()
		h.log.Debug("subscriber disconnected", "room", room)
	}()

	// Writer: one goroutine per connection serialises all frames.
	go func() {
		for frame := range sub.send {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		// Hub closed the channel: tell the peer before dropping.
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
	}()

	// Reader: the feed is one-way, so reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes frame to every subscriber of room. Subscribers whose
// buffers are full are dropped rather than allowed to block the room.
func (h *Hub) Broadcast(room domain.RoomID, frame Frame) {
	h.mu.Lock()
	var overflow []*subscriber
	for sub := range h.rooms[room] {
		select {
		case sub.send <- frame:
		default:
			overflow = append(overflow, sub)
		}
	}
	// Overflowing subscribers leave the map before their channel closes, so
	// no concurrent Broadcast can still reach them.
	for _, sub := range overflow {
		h.removeLocked(room, sub)
	}
	h.mu.Unlock()

	for _, sub := range overflow {
		h.log.Warn("dropping slow subscriber", "room", room)
		sub.close()
		_ = sub.conn.Close()
	}
}

func (h *Hub) drop(room domain.RoomID, sub *subscriber) {
	h.mu.Lock()
	h.removeLocked(room, sub)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(room domain.RoomID, sub *subscriber) {
	if set := h.rooms[room]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}
