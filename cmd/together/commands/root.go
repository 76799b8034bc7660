package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/app"
	"github.com/Talha76/Together/internal/session"
	"github.com/Talha76/Together/internal/store"
)

var errPassphraseRequired = errors.New("passphrase required (-p)")

var (
	home       string
	passphrase string
	relayURL   string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "together",
		Short: "End-to-end encrypted two-party chat over an untrusted relay",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".together")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			wire, err = app.NewWire(app.Config{Home: home, RelayURL: relayURL})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.together)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the saved pairing")
	root.PersistentFlags().StringVar(&relayURL, "relay", "http://127.0.0.1:8080", "relay base URL")

	root.AddCommand(joinCmd(), watchCmd(), sendCmd(), sendFileCmd(), fingerprintCmd(), leaveCmd())
	return root.Execute()
}

// loadPairing opens the saved pairing with the persistent passphrase flag.
func loadPairing() (store.Pairing, error) {
	if passphrase == "" {
		return store.Pairing{}, errPassphraseRequired
	}
	return wire.Pairings.Load(passphrase)
}

// release leaves the room unless this dial reclaimed a slot that another
// process with the same pairing (a running watch) is heartbeating; leaving
// then would evict that process too.
func release(ctx context.Context, s *session.Session) {
	if s.Rejoined() {
		return
	}
	_ = s.Leave(ctx)
}
