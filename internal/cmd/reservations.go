package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/display"
	"github.com/thatjpcsguy/crossport/internal/registry"
)

// NewReservationsCmd creates the reservations command
func NewReservationsCmd() *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List reserved ports",
		Long:  `Lists the ports reserved with 'suggest --reserve'. Expired reservations are marked and can be removed with --prune.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.New()
			if err != nil {
				return fmt.Errorf("failed to open registry: %w", err)
			}
			defer func() { _ = reg.Close() }()

			if prune {
				return pruneReservations(reg)
			}

			reservations, err := reg.List()
			if err != nil {
				return fmt.Errorf("failed to list reservations: %w", err)
			}

			display.Reservations(os.Stdout, reservations, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Remove expired reservations")

	return cmd
}

func pruneReservations(reg *registry.Registry) error {
	expired, err := reg.PurgeExpired()
	if err != nil {
		return fmt.Errorf("failed to remove expired reservations: %w", err)
	}

	if len(expired) == 0 {
		fmt.Println("No expired reservations found")
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	for _, res := range expired {
		daysAgo := int(time.Since(res.ExpiresAt).Hours() / 24)
		fmt.Printf("  - %s (port %d) %s\n", res.Name, res.Port, red(fmt.Sprintf("expired %d days ago", daysAgo)))
	}
	fmt.Printf("Removed %d reservation(s)\n", len(expired))
	return nil
}
