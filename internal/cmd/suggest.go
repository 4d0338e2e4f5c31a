package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/envfile"
	"github.com/thatjpcsguy/crossport/internal/registry"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
)

const defaultSuggestBase = 3000

// reservationStore is the part of the registry suggest relies on
type reservationStore interface {
	Get(name string) (*registry.Reservation, error)
	ReservedPorts() (map[int]bool, error)
}

// NewSuggestCmd creates the suggest command
func NewSuggestCmd() *cobra.Command {
	var (
		maxPort int
		envPath string
		envKey  string
		reserve string
	)

	cmd := &cobra.Command{
		Use:   "suggest [BASE]",
		Short: "Suggest a free port",
		Long: `Finds the first port at or above BASE (default 3000) that can be bound and is not
reserved. Optionally records a reservation and writes the port into a .env file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			base := uint16(defaultSuggestBase)
			if len(args) == 1 {
				if base, err = parsePort(args[0]); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("max") {
				maxPort = a.cfg.SuggestMax
			}
			ceiling, err := parsePort(strconv.Itoa(maxPort))
			if err != nil {
				return fmt.Errorf("invalid --max: %w", err)
			}
			if base > ceiling {
				return fmt.Errorf("base port %d is above the maximum %d", base, ceiling)
			}

			reg, err := registry.New()
			if err != nil {
				if reserve != "" {
					return fmt.Errorf("failed to open registry: %w", err)
				}
				a.log.Warnw("registry unavailable, reservations ignored", "error", err)
			} else {
				defer func() { _ = reg.Close() }()
			}

			var store reservationStore
			if reg != nil {
				store = reg
			}

			port, err := suggestPort(store, reserve, base, ceiling, snapshot.PortAvailable, os.Stderr)
			if err != nil {
				return err
			}
			fmt.Printf("Suggested port: %d\n", port)

			if reserve != "" {
				res, err := reg.Reserve(reserve, int(port), a.cfg.ReservationTTLDays)
				if err != nil {
					return fmt.Errorf("failed to reserve port: %w", err)
				}
				fmt.Printf("Reserved port %d for %s until %s\n", res.Port, res.Name, res.ExpiresAt.Local().Format("2006-01-02"))
			}

			if envPath != "" {
				backup, err := envfile.Update(envPath, envKey, strconv.Itoa(int(port)))
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", envPath, err)
				}
				fmt.Printf("Updated %s in %s\n", envKey, envPath)
				if backup != "" {
					fmt.Printf("  Backup: %s\n", backup)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&maxPort, "max", 0, "Highest port to consider (default from SUGGEST_MAX)")
	cmd.Flags().StringVar(&envPath, "env", "", "Write the port into this .env file")
	cmd.Flags().StringVar(&envKey, "key", "PORT", "Key to set in the .env file")
	cmd.Flags().StringVar(&reserve, "reserve", "", "Reserve the port under this name")

	return cmd
}

// suggestPort returns the port for a suggestion. A name that already holds
// a reservation inside [base, ceiling] keeps it, with a notice on out when
// the port cannot be bound right now; otherwise the first available port not
// reserved by anyone is chosen. store may be nil.
func suggestPort(store reservationStore, name string, base, ceiling uint16, available func(uint16) bool, out io.Writer) (uint16, error) {
	if store == nil {
		return snapshot.SuggestWith(base, ceiling, available, nil)
	}

	if name != "" {
		res, err := store.Get(name)
		switch {
		case err == nil:
			if res.Port >= int(base) && res.Port <= int(ceiling) {
				port := uint16(res.Port)
				if !available(port) {
					fmt.Fprintf(out, "Note: port %d reserved for %s is in use right now\n", port, name)
				}
				return port, nil
			}
		case !errors.Is(err, registry.ErrNotFound):
			return 0, fmt.Errorf("failed to read reservation %s: %w", name, err)
		}
	}

	reserved, err := store.ReservedPorts()
	if err != nil {
		return 0, fmt.Errorf("failed to read reserved ports: %w", err)
	}

	return snapshot.SuggestWith(base, ceiling, available, func(port uint16) bool {
		return reserved[int(port)]
	})
}
