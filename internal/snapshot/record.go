// Package snapshot joins listening sockets, the process table and container
// port mappings into an immutable port -> process view.
package snapshot

import "fmt"

// Kind classifies what a listening process most likely is
type Kind int

const (
	KindOther Kind = iota
	KindSystem
	KindPackageManager
	KindDev
	KindContainer
	KindOrchestrator
)

var kindNames = map[Kind]string{
	KindOther:          "other",
	KindSystem:         "system",
	KindPackageManager: "brew",
	KindDev:            "dev",
	KindContainer:      "docker",
	KindOrchestrator:   "k8s",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown process kind %q", string(text))
}

// ProcessRecord is one process bound to one port.
// PIDs are reused by the OS and are not stable across snapshots.
type ProcessRecord struct {
	PID         int     `json:"pid"`
	User        string  `json:"user"`
	UID         *uint32 `json:"uid,omitempty"`
	Command     string  `json:"cmd"`
	Cwd         string  `json:"cwd"`
	ProjectRoot string  `json:"project_root,omitempty"`
	Container   string  `json:"container_name,omitempty"`
	Kind        Kind    `json:"kind"`
	Port        uint16  `json:"port"`
}
