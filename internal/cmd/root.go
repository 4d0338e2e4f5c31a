package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/display"
	"github.com/thatjpcsguy/crossport/internal/git"
)

// NewRootCmd creates the crossport command with all subcommands attached
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crossport [PORT...]",
		Short: "Find and stop whatever is listening on a port",
		Long: `Crossport shows which process listens on a TCP port, where it was started
from and whether it belongs to a container, and can stop it gracefully.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			ports := make([]uint16, 0, len(args))
			for _, arg := range args {
				port, err := parsePort(arg)
				if err != nil {
					return err
				}
				ports = append(ports, port)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.capture()
			if err != nil {
				return err
			}

			for _, port := range ports {
				records := snap.Lookup(port)
				if len(records) == 0 {
					display.Free(os.Stdout, port)
					continue
				}
				for _, rec := range records {
					display.Record(os.Stdout, rec, projectBranch(rec.ProjectRoot))
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Explicit configuration file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log diagnostics to stderr")

	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewSuggestCmd())
	rootCmd.AddCommand(NewKillCmd())
	rootCmd.AddCommand(NewUICmd())
	rootCmd.AddCommand(NewReservationsCmd())
	rootCmd.AddCommand(NewReleaseCmd())

	return rootCmd
}

// projectBranch returns the checked-out branch of root, or "" when unknown
func projectBranch(root string) string {
	if root == "" {
		return ""
	}
	branch, err := git.CurrentBranch(root)
	if err != nil {
		return ""
	}
	return branch
}
