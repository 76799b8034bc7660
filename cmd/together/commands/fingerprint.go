package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/crypto"
)

// fingerprint: print the pairing fingerprint for out-of-band comparison.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the pairing fingerprint and room id",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairing, err := loadPairing()
			if err != nil {
				return err
			}
			secret, err := pairing.SharedSecret()
			if err != nil {
				return err
			}
			fmt.Printf("Room:        %s\nFingerprint: %s\n",
				crypto.RoomIDFromSecret(secret), crypto.Fingerprint(secret.Slice()))
			return nil
		},
	}
}
