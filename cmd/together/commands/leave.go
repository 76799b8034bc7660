package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/crypto"
)

// leave: release the room slot; --forget also deletes the local pairing.
func leaveCmd() *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Release the room slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairing, err := loadPairing()
			if err != nil {
				return err
			}
			secret, err := pairing.SharedSecret()
			if err != nil {
				return err
			}

			room := crypto.RoomIDFromSecret(secret)
			self := crypto.ParticipantIDFor(secret, pairing.DisplayName)
			if err := wire.Relay.Leave(cmd.Context(), room, self); err != nil {
				return err
			}
			if forget {
				if err := wire.Pairings.Delete(); err != nil {
					return err
				}
				fmt.Println("left room and deleted pairing")
				return nil
			}
			fmt.Println("left room")
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also delete the saved pairing")
	return cmd
}
