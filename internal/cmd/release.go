package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/registry"
)

// NewReleaseCmd creates the release command
func NewReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release NAME",
		Short: "Release a reserved port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			reg, err := registry.New()
			if err != nil {
				return fmt.Errorf("failed to open registry: %w", err)
			}
			defer func() { _ = reg.Close() }()

			res, err := reg.Get(name)
			if errors.Is(err, registry.ErrNotFound) {
				return fmt.Errorf("no reservation named %s", name)
			}
			if err != nil {
				return fmt.Errorf("failed to read reservation: %w", err)
			}

			if err := reg.Release(name); err != nil {
				return fmt.Errorf("failed to release %s: %w", name, err)
			}

			fmt.Printf("Released port %d (%s)\n", res.Port, name)
			return nil
		},
	}
}
