package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/terminate"
	"github.com/thatjpcsguy/crossport/internal/tui"
)

// NewUICmd creates the ui command
func NewUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse and stop listeners interactively",
		Long:  `Opens a live table of every listening port. Use j/k to move, x to stop the selected process and q to quit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			protocol := terminate.New(nil, a.log)
			opts := terminate.Options{Signal: a.cfg.KillSignal}

			return tui.Run(tui.Options{
				Capture: a.capture,
				Kill: func(pid int) (string, error) {
					outcome, err := protocol.Run(pid, opts)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("Process %d: %s", pid, outcome.Reason), nil
				},
				Refresh: time.Duration(a.cfg.UIRefreshSeconds) * time.Second,
			})
		},
	}
}
