package app

import (
	"net/http"

	"github.com/Talha76/Together/internal/relay"
	"github.com/Talha76/Together/internal/session"
	"github.com/Talha76/Together/internal/store"
)

// Wire bundles the pairing store and relay client for the CLI.
type Wire struct {
	Config   Config
	Pairings *store.PairingFileStore
	Relay    *relay.Client
	HTTP     *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Wire{
		Config:   cfg,
		Pairings: store.NewPairingFileStore(cfg.Home),
		Relay:    relay.NewClient(cfg.RelayURL, httpClient),
		HTTP:     httpClient,
	}, nil
}

// SessionConfig returns the session wiring: the relay client serves as room
// store, message channel and blob transport at once.
func (w *Wire) SessionConfig() session.Config {
	return session.Config{
		Store:             w.Relay,
		Channel:           w.Relay,
		Blobs:             w.Relay,
		HeartbeatInterval: w.Config.HeartbeatInterval,
		InactivityTimeout: w.Config.InactivityTimeout,
		ChunkSize:         w.Config.ChunkSize,
	}
}
