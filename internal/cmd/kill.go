package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/display"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
	"github.com/thatjpcsguy/crossport/internal/terminate"
	"golang.org/x/term"
)

// NewKillCmd creates the kill command
func NewKillCmd() *cobra.Command {
	var (
		dryRun      bool
		interactive bool
		allUsers    bool
		signal      string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "kill PORT",
		Short: "Stop the processes listening on a port",
		Long: `Stops every process listening on PORT. By default the process is asked to
exit with SIGINT, then SIGTERM, then SIGKILL, waiting a second between steps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("signal") {
				signal = a.cfg.KillSignal
			}
			if signal != "" && !force && !dryRun {
				if _, err := terminate.ParseSignal(signal); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("interactive") {
				interactive = a.cfg.KillConfirm
			}

			snap, err := a.capture()
			if err != nil {
				return err
			}

			records := snap.Lookup(port)
			if len(records) == 0 {
				fmt.Printf("No process found on port %d\n", port)
				return nil
			}

			k := &killer{
				guard:    newKillGuard(allUsers),
				protocol: terminate.New(os.Stdout, a.log),
				opts:     terminate.Options{Signal: signal, Force: force, DryRun: dryRun},
				out:      os.Stdout,
			}
			if interactive && !dryRun && term.IsTerminal(int(os.Stdin.Fd())) {
				k.confirm = promptConfirm(os.Stdin, os.Stdout)
			}

			return k.run(records)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be sent without sending it")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", true, "Confirm each process (default from KILL_CONFIRM)")
	cmd.Flags().BoolVar(&allUsers, "all-users", false, "Allow stopping system processes and other users' processes")
	cmd.Flags().StringVar(&signal, "signal", "", "Send only this signal (INT, TERM, KILL)")
	cmd.Flags().BoolVar(&force, "force", false, "Send SIGKILL immediately")

	return cmd
}

// terminator runs one termination
type terminator interface {
	Run(pid int, opts terminate.Options) (terminate.Outcome, error)
}

// killer applies the safeguards and the protocol to every record on a port
type killer struct {
	guard    killGuard
	protocol terminator
	opts     terminate.Options
	confirm  func(rec snapshot.ProcessRecord) bool
	out      io.Writer
}

// run attempts every record independently and joins the failures
func (k *killer) run(records []snapshot.ProcessRecord) error {
	var errs []error
	for _, rec := range records {
		display.Record(k.out, rec, "")

		if reason := k.guard.skipReason(rec); reason != "" {
			display.Skipped(k.out, "Skipping process %d: %s", rec.PID, reason)
			continue
		}

		if k.confirm != nil && !k.confirm(rec) {
			fmt.Fprintln(k.out, "Skipped.")
			continue
		}

		if _, err := k.protocol.Run(rec.PID, k.opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// killGuard decides which records may be signalled
type killGuard struct {
	allUsers bool
	uid      int
}

func newKillGuard(allUsers bool) killGuard {
	return killGuard{allUsers: allUsers, uid: os.Getuid()}
}

// skipReason returns why rec must not be signalled, or "" when it may be
func (g killGuard) skipReason(rec snapshot.ProcessRecord) string {
	if g.allUsers {
		return ""
	}
	if rec.Kind == snapshot.KindSystem {
		return "system process (use --all-users to override)"
	}
	// uid is -1 where the platform has no uids
	if g.uid > 0 && rec.UID != nil && int(*rec.UID) != g.uid {
		return fmt.Sprintf("owned by %s (use --all-users to override)", rec.User)
	}
	return ""
}

// promptConfirm asks on out and reads the answer from in
func promptConfirm(in io.Reader, out io.Writer) func(snapshot.ProcessRecord) bool {
	reader := bufio.NewReader(in)
	return func(rec snapshot.ProcessRecord) bool {
		fmt.Fprintf(out, "Kill process %d? [y/N] ", rec.PID)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(answer), "y")
	}
}
