package relay

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Talha76/Together/internal/domain"
)

// wsFrame mirrors the server's typed broadcast frame.
type wsFrame struct {
	Type         string               `json:"type"`
	Envelope     *domain.WireEnvelope `json:"envelope,omitempty"`
	Participants []domain.Participant `json:"participants,omitempty"`
}

// Subscribe opens the room's websocket feed and dispatches frames to ev from
// a single goroutine, preserving delivery order. The returned func tears the
// subscription down; ctx cancellation does the same.
func (c *Client) Subscribe(ctx context.Context, room domain.RoomID, ev domain.ChannelEvents) (func(), error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(room), nil)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	stop := func() {
		once.Do(func() { _ = conn.Close() })
	}

	// ctx cancellation unblocks the blocked ReadJSON below.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		defer stop()
		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Debug("subscription closed", "room", room, "err", err)
				}
				return
			}
			switch frame.Type {
			case "message":
				if frame.Envelope != nil && ev.OnEnvelope != nil {
					ev.OnEnvelope(*frame.Envelope)
				}
			case "presence":
				if ev.OnPresence != nil {
					ev.OnPresence(frame.Participants)
				}
			}
		}
	}()

	return stop, nil
}

func (c *Client) wsURL(room domain.RoomID) string {
	base := c.Base
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/rooms/" + url.PathEscape(room.String()) + "/ws"
}
