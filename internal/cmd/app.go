package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/crossport/internal/config"
	"github.com/thatjpcsguy/crossport/internal/docker"
	"github.com/thatjpcsguy/crossport/internal/listeners"
	"github.com/thatjpcsguy/crossport/internal/proctable"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

// newApp loads config and builds the logger from the persistent flags
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	log, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Debugw("config loaded", "scan_from", cfg.ScanFrom, "scan_to", cfg.ScanTo, "runtime", cfg.ContainerRuntime)

	return &app{cfg: cfg, log: log}, nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	if !verbose {
		return zap.NewNop().Sugar(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.Sugar(), nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) correlator() *snapshot.Correlator {
	return snapshot.NewCorrelator(
		proctable.NewReader(),
		listeners.NewReader(a.log),
		docker.NewRuntime(a.cfg.ContainerRuntime, a.log),
		a.log,
	)
}

func (a *app) capture() (*snapshot.Snapshot, error) {
	snap, err := a.correlator().Capture()
	if err != nil {
		return nil, fmt.Errorf("failed to capture listening ports: %w", err)
	}
	a.log.Debugw("snapshot captured", "ports", snap.Len(), "at", snap.CapturedAt())
	return snap, nil
}

// parsePort parses a TCP port argument
func parsePort(arg string) (uint16, error) {
	port, err := strconv.ParseUint(arg, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("invalid port %q: must be within 1-65535", arg)
	}
	return uint16(port), nil
}
