package relayserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Talha76/Together/internal/domain"
	"github.com/Talha76/Together/internal/observability/metrics"
)

// Config carries the relay server tunables.
type Config struct {
	InactivityTimeout time.Duration // participant staleness horizon
	SweepInterval     time.Duration // registry + blob GC cadence
	BlobTTL           time.Duration
	BlobMaxBytes      int64
}

// Server ties the registry, hub and blob store behind one router.
type Server struct {
	log   *slog.Logger
	cfg   Config
	reg   *Registry
	hub   *Hub
	blobs *BlobStore
}

// New builds a Server from cfg, filling unset fields with serviceable
// defaults.
func New(cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = 75 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.InactivityTimeout / 2
	}
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = 24 * time.Hour
	}
	return &Server{
		log:   log,
		cfg:   cfg,
		reg:   NewRegistry(cfg.InactivityTimeout, nil),
		hub:   NewHub(log),
		blobs: NewBlobStore(cfg.BlobTTL, cfg.BlobMaxBytes, nil),
	}
}

// Router returns the HTTP surface consumed by relay clients.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(withMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/rooms/{room}", func(r chi.Router) {
		r.Post("/join", s.handleJoin)
		r.Post("/heartbeat", s.handleHeartbeat)
		r.Post("/leave", s.handleLeave)
		r.Get("/participants", s.handleParticipants)
		r.Post("/messages", s.handleSend)
		r.Get("/ws", s.handleWS)
	})

	r.Post("/blobs", s.handleBlobStore)
	r.Get("/blobs/{link}", s.handleBlobRetrieve)

	return r
}

// Run drives the periodic sweeps until ctx ends. Membership changes caused
// by staleness eviction are pushed to subscribers so an evicted client
// learns its fate without polling.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, room := range s.reg.Sweep() {
				s.broadcastPresence(room)
			}
			if removed := s.blobs.Sweep(); removed > 0 {
				s.log.Info("swept expired blobs", "removed", removed)
			}
			metrics.RoomsActive.WithLabelValues().Set(float64(s.reg.RoomCount()))
		}
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	var p domain.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ID == "" {
		httpError(w, http.StatusBadRequest, "invalid participant")
		return
	}
	res, err := s.reg.Join(room, p)
	if errors.Is(err, domain.ErrRoomFull) {
		metrics.JoinRejectionsTotal.WithLabelValues().Inc()
		httpError(w, http.StatusConflict, "room_full")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("participant joined", "room", room, "participant", p.ID, "rejoin", res.Rejoin)
	metrics.RoomsActive.WithLabelValues().Set(float64(s.reg.RoomCount()))
	s.broadcastPresence(room)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	var body struct {
		ParticipantID domain.ParticipantID `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ParticipantID == "" {
		httpError(w, http.StatusBadRequest, "invalid heartbeat")
		return
	}
	if err := s.reg.Heartbeat(room, body.ParticipantID); err != nil {
		httpError(w, http.StatusNotFound, "not_joined")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	var body struct {
		ParticipantID domain.ParticipantID `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ParticipantID == "" {
		httpError(w, http.StatusBadRequest, "invalid leave")
		return
	}
	s.reg.Leave(room, body.ParticipantID)
	s.log.Info("participant left", "room", room, "participant", body.ParticipantID)
	metrics.RoomsActive.WithLabelValues().Set(float64(s.reg.RoomCount()))
	s.broadcastPresence(room)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	writeJSON(w, http.StatusOK, s.reg.Participants(room))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	var env domain.WireEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		httpError(w, http.StatusBadRequest, "invalid envelope")
		return
	}
	env.Room = room
	// Only joined participants may post into a room.
	if err := s.reg.Heartbeat(room, env.From); err != nil {
		httpError(w, http.StatusNotFound, "not_joined")
		return
	}
	s.hub.Broadcast(room, Frame{Type: FrameMessage, Envelope: &env})
	metrics.EnvelopesRelayedTotal.WithLabelValues(string(env.Kind)).Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(chi.URLParam(r, "room"))
	s.hub.ServeWS(w, r, room)
}

func (s *Server) handleBlobStore(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	body := r.Body
	if s.cfg.BlobMaxBytes > 0 {
		// Enforce the cap while reading, so an oversized upload never
		// occupies its full size in memory.
		body = http.MaxBytesReader(w, r.Body, s.cfg.BlobMaxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "blob_too_large")
			return
		}
		httpError(w, http.StatusBadRequest, "read body")
		return
	}
	link, err := s.blobs.Store(data, name)
	if errors.Is(err, ErrBlobTooLarge) {
		httpError(w, http.StatusRequestEntityTooLarge, "blob_too_large")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.BlobBytesStored.WithLabelValues().Observe(float64(len(data)))
	s.log.Info("blob stored", "link", link, "bytes", len(data))
	writeJSON(w, http.StatusCreated, map[string]string{"link": link.String()})
}

func (s *Server) handleBlobRetrieve(w http.ResponseWriter, r *http.Request) {
	link := domain.BlobLink(chi.URLParam(r, "link"))
	data, name, err := s.blobs.Retrieve(link)
	if err != nil {
		httpError(w, http.StatusNotFound, "blob_not_found")
		return
	}
	if name != "" {
		w.Header().Set("X-Blob-Name", name)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) broadcastPresence(room domain.RoomID) {
	s.hub.Broadcast(room, Frame{Type: FramePresence, Participants: s.reg.Participants(room)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
