package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Talha76/Together/internal/domain"
)

// Client talks to one relay server.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a Client for the given base URL.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

var (
	_ domain.RoomStore      = (*Client)(nil)
	_ domain.MessageChannel = (*Client)(nil)
	_ domain.BlobTransport  = (*Client)(nil)
)

// Join requests admission; a 409 from the relay surfaces as ErrRoomFull.
func (c *Client) Join(ctx context.Context, room domain.RoomID, p domain.Participant) (domain.JoinResult, error) {
	var res domain.JoinResult
	err := c.post(ctx, "/rooms/"+url.PathEscape(room.String())+"/join", p, &res)
	if err != nil {
		if statusOf(err) == http.StatusConflict {
			return domain.JoinResult{}, domain.ErrRoomFull
		}
		return domain.JoinResult{}, err
	}
	return res, nil
}

// Heartbeat refreshes the slot; a 404 means the relay no longer holds us.
func (c *Client) Heartbeat(ctx context.Context, room domain.RoomID, id domain.ParticipantID) error {
	err := c.post(ctx, "/rooms/"+url.PathEscape(room.String())+"/heartbeat", heartbeatBody{ParticipantID: id}, nil)
	if statusOf(err) == http.StatusNotFound {
		return domain.ErrNotJoined
	}
	return err
}

// Leave releases the slot.
func (c *Client) Leave(ctx context.Context, room domain.RoomID, id domain.ParticipantID) error {
	return c.post(ctx, "/rooms/"+url.PathEscape(room.String())+"/leave", heartbeatBody{ParticipantID: id}, nil)
}

// Participants fetches the current active set.
func (c *Client) Participants(ctx context.Context, room domain.RoomID) ([]domain.Participant, error) {
	var out []domain.Participant
	if err := c.getJSON(ctx, "/rooms/"+url.PathEscape(room.String())+"/participants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Send posts an envelope into its room.
func (c *Client) Send(ctx context.Context, env domain.WireEnvelope) error {
	err := c.post(ctx, "/rooms/"+url.PathEscape(env.Room.String())+"/messages", env, nil)
	if statusOf(err) == http.StatusNotFound {
		return domain.ErrNotJoined
	}
	return err
}

type heartbeatBody struct {
	ParticipantID domain.ParticipantID `json:"participant_id"`
}

// --- plumbing ---

// httpStatusError keeps the status code available for sentinel mapping while
// the message stays human-readable.
type httpStatusError struct {
	method string
	path   string
	status int
	text   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("relay %s %s: %s", e.method, e.path, e.text)
}

func statusOf(err error) int {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &httpStatusError{method: http.MethodPost, path: path, status: resp.StatusCode, text: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &httpStatusError{method: http.MethodGet, path: path, status: resp.StatusCode, text: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// progressReader reports whole-percent progress as it is consumed.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress domain.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.onProgress != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return n, err
}
