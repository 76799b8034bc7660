package app

import (
	"net/http"
	"time"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string       // config directory, e.g. $HOME/.together
	RelayURL string       // relay base URL, e.g. http://127.0.0.1:8080
	HTTP     *http.Client // optional; defaults to http.DefaultClient

	// Zero values fall back to the room package defaults.
	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration

	// ChunkSize tunes file encryption; zero means filecrypt.DefaultChunkSize.
	ChunkSize int
}
