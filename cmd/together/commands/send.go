package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/session"
)

// send <message>: encrypt and post one message, then release the slot.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Encrypt and send a text message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairing, err := loadPairing()
			if err != nil {
				return err
			}
			secret, err := pairing.SharedSecret()
			if err != nil {
				return err
			}

			s, err := session.DialSecret(cmd.Context(), wire.SessionConfig(), secret, pairing.DisplayName)
			if err != nil {
				return err
			}
			defer release(cmd.Context(), s)

			if err := s.SendText(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
