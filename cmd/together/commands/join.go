package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/crypto"
	"github.com/Talha76/Together/internal/session"
	"github.com/Talha76/Together/internal/store"
)

// join <code>: derive the room from the shared code, claim a slot to prove
// the pairing works, and persist it for the other commands.
func joinCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Pair with the peer who knows the same code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return errPassphraseRequired
			}

			secret, err := crypto.SecretFromCode(args[0])
			if err != nil {
				return err
			}

			// Claim a slot now so a full room fails here, not at first send.
			s, err := session.DialSecret(cmd.Context(), wire.SessionConfig(), secret, name)
			if err != nil {
				return err
			}
			roomID := s.RoomID()
			fp := s.SecretFingerprint()
			release(cmd.Context(), s)

			err = wire.Pairings.Save(passphrase, store.Pairing{
				RelayURL:    relayURL,
				DisplayName: name,
				Secret:      secret.Encode(),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Paired.\nRoom:        %s\nFingerprint: %s\n", roomID, fp)
			fmt.Println("Compare the fingerprint with your peer out of band, then run `together watch`.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name shown to your peer")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
