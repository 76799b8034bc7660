package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/session"
)

// send-file <path>: chunk-encrypt a file, upload it, and offer it to the peer.
func sendFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-file <path>",
		Short: "Encrypt and send a file",
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

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			s, err := session.DialSecret(cmd.Context(), wire.SessionConfig(), secret, pairing.DisplayName)
			if err != nil {
				return err
			}
			defer release(cmd.Context(), s)

			name := filepath.Base(args[0])
			err = s.SendFile(cmd.Context(), name, f, info.Size(), func(pct int) {
				fmt.Printf("\r%s: %3d%%", name, pct)
			})
			fmt.Println()
			if err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
