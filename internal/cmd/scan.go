package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/config"
	"github.com/thatjpcsguy/crossport/internal/display"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
	"github.com/thatjpcsguy/crossport/internal/ssh"
)

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	var (
		from    int
		to      int
		jsonOut bool
		remote  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List listening ports in a range",
		Long:  `Lists every process listening on a port within the range, sorted by port. The range defaults to SCAN_RANGE.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("from") {
				from = a.cfg.ScanFrom
			}
			if !cmd.Flags().Changed("to") {
				to = a.cfg.ScanTo
			}
			if err := config.ValidRange(from, to); err != nil {
				return fmt.Errorf("invalid scan range: %w", err)
			}

			var records []snapshot.ProcessRecord
			if remote {
				records, err = scanRemote(a, from, to)
			} else {
				records, err = scanLocal(a, from, to)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(records)
			}
			display.Scan(os.Stdout, records)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "Start of port range (default from SCAN_RANGE)")
	cmd.Flags().IntVar(&to, "to", 0, "End of port range (default from SCAN_RANGE)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&remote, "remote", false, "Scan REMOTE_HOST over SSH")

	return cmd
}

func scanLocal(a *app, from, to int) ([]snapshot.ProcessRecord, error) {
	snap, err := a.capture()
	if err != nil {
		return nil, err
	}
	return snap.Scan(uint16(from), uint16(to)), nil
}

func scanRemote(a *app, from, to int) ([]snapshot.ProcessRecord, error) {
	fmt.Fprintf(os.Stderr, "Connecting to %s@%s...\n", a.cfg.RemoteUser, a.cfg.RemoteHost)

	client, err := ssh.NewClient(a.cfg.RemoteUser, a.cfg.RemoteHost, a.cfg.SSHKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	command := ssh.Command(a.cfg.RemoteBin, "scan", "--json",
		"--from", strconv.Itoa(from), "--to", strconv.Itoa(to))
	a.log.Debugw("running remote scan", "host", a.cfg.RemoteHost, "command", command)

	output, err := client.Execute(command)
	if err != nil {
		return nil, fmt.Errorf("remote scan failed: %w", err)
	}

	return decodeRecords([]byte(output))
}

func decodeRecords(data []byte) ([]snapshot.ProcessRecord, error) {
	var records []snapshot.ProcessRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode scan output: %w", err)
	}
	return records, nil
}

func writeJSON(records []snapshot.ProcessRecord) error {
	if records == nil {
		records = []snapshot.ProcessRecord{}
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
