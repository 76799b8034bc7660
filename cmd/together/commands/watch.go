package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Talha76/Together/internal/session"
)

// watch: hold the room slot open and print whatever arrives.
func watchCmd() *cobra.Command {
	var downloadDir string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay in the room and print incoming messages and files",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairing, err := loadPairing()
			if err != nil {
				return err
			}
			secret, err := pairing.SharedSecret()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := session.DialSecret(ctx, wire.SessionConfig(), secret, pairing.DisplayName)
			if err != nil {
				return err
			}
			fmt.Printf("Watching room %s as %s. Ctrl-C to leave.\n", s.RoomID(), pairing.DisplayName)

			for {
				select {
				case <-ctx.Done():
					return s.Leave(context.Background())
				case <-s.Done():
					return nil
				case ev := <-s.Events():
					printEvent(ctx, s, ev, downloadDir)
				}
			}
		},
	}
	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "fetch incoming files into this directory")
	return cmd
}

func printEvent(ctx context.Context, s *session.Session, ev session.Event, downloadDir string) {
	stamp := ev.Timestamp.Format("15:04:05")
	who := ev.From.String()
	if ev.Self {
		who = "you"
	}

	switch ev.Kind {
	case session.EventText:
		fmt.Printf("[%s] %s: %s\n", stamp, who, ev.Text)
	case session.EventFile:
		fmt.Printf("[%s] %s sent %s (%d bytes)\n", stamp, who, ev.File.Name, ev.File.Size)
		if downloadDir == "" || ev.Self {
			return
		}
		data, err := s.FetchFile(ctx, *ev.File, nil)
		if err != nil {
			fmt.Printf("  fetch failed: %v\n", err)
			return
		}
		dst := filepath.Join(downloadDir, filepath.Base(ev.File.Name))
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			fmt.Printf("  save failed: %v\n", err)
			return
		}
		fmt.Printf("  saved to %s\n", dst)
	case session.EventPresence:
		names := make([]string, 0, len(ev.Participants))
		for _, p := range ev.Participants {
			names = append(names, p.DisplayName)
		}
		fmt.Printf("[%s] present: %v\n", stamp, names)
	case session.EventUnreadable:
		fmt.Printf("[%s] %s sent a message this pairing cannot read\n", stamp, who)
	case session.EventEvicted:
		fmt.Printf("[%s] removed from the room (inactive too long or slot reclaimed)\n", stamp)
	}
}
