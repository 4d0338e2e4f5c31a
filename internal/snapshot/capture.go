package snapshot

import (
	"fmt"

	"github.com/thatjpcsguy/crossport/internal/listeners"
	"github.com/thatjpcsguy/crossport/internal/proctable"
	"go.uber.org/zap"
)

// ProcessSource snapshots the process table
type ProcessSource interface {
	Snapshot() (proctable.Table, error)
}

// ListenerSource lists (pid, port) pairs in LISTEN state
type ListenerSource interface {
	List() ([]listeners.Listener, error)
}

// ContainerSource maps published host ports to container names
type ContainerSource interface {
	PortMap() map[uint16]string
}

// Correlator joins the three sources into a Snapshot
type Correlator struct {
	Processes  ProcessSource
	Listeners  ListenerSource
	Containers ContainerSource
	Log        *zap.SugaredLogger

	projectRoot func(dir string) string
}

// NewCorrelator creates a Correlator over the given sources
func NewCorrelator(procs ProcessSource, lst ListenerSource, containers ContainerSource, log *zap.SugaredLogger) *Correlator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Correlator{
		Processes:   procs,
		Listeners:   lst,
		Containers:  containers,
		Log:         log,
		projectRoot: FindProjectRoot,
	}
}

// Capture performs one correlation pass. The process table is read before the
// sockets, so a pid that exits in between is silently dropped. Process table
// and socket failures abort the capture; container failures never do.
func (c *Correlator) Capture() (*Snapshot, error) {
	table, err := c.Processes.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read process table: %w", err)
	}

	pairs, err := c.Listeners.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list listening sockets: %w", err)
	}

	containerPorts := map[uint16]string{}
	if c.Containers != nil {
		if m := c.Containers.PortMap(); m != nil {
			containerPorts = m
		}
	}

	projectRoot := c.projectRoot
	if projectRoot == nil {
		projectRoot = FindProjectRoot
	}
	// Listening processes often share a cwd; walk each directory once
	roots := make(map[string]string)

	records := make([]ProcessRecord, 0, len(pairs))
	dropped := 0
	for _, pair := range pairs {
		proc, ok := table.Lookup(pair.PID)
		if !ok {
			dropped++
			continue
		}

		root, seen := roots[proc.Cwd]
		if !seen {
			root = projectRoot(proc.Cwd)
			roots[proc.Cwd] = root
		}

		container := containerPorts[pair.Port]
		records = append(records, ProcessRecord{
			PID:         pair.PID,
			User:        proc.User,
			UID:         proc.UID,
			Command:     proc.Command,
			Cwd:         proc.Cwd,
			ProjectRoot: root,
			Container:   container,
			Kind:        classifyRecord(proc.Command, proc.Cwd, container),
			Port:        pair.Port,
		})
	}

	c.Log.Debugw("capture complete",
		"processes", len(table),
		"listeners", len(pairs),
		"container_ports", len(containerPorts),
		"records", len(records),
		"dropped", dropped,
	)

	return New(records), nil
}
