// Package terminate implements graduated termination of a process:
// interrupt, then terminate, then kill, with an observation delay between.
package terminate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSignal is returned for a signal name that is not INT, TERM or KILL
	ErrUnknownSignal = errors.New("unknown signal")
	// ErrProcessGone is returned by a Signaler when the target does not exist
	ErrProcessGone = errors.New("process not found")
	// ErrPermissionDenied is returned by a Signaler when the caller may not signal the target
	ErrPermissionDenied = errors.New("permission denied")
)

// Signal is a portable termination signal
type Signal int

const (
	Interrupt Signal = iota + 1
	Terminate
	Kill
)

func (s Signal) String() string {
	switch s {
	case Interrupt:
		return "SIGINT"
	case Terminate:
		return "SIGTERM"
	case Kill:
		return "SIGKILL"
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// ParseSignal accepts INT, TERM or KILL, case-insensitive, with or without a SIG prefix
func ParseSignal(name string) (Signal, error) {
	upper := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "SIG")
	switch upper {
	case "INT":
		return Interrupt, nil
	case "TERM":
		return Terminate, nil
	case "KILL":
		return Kill, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
}

// Signaler delivers signals to processes and probes whether they still exist
type Signaler interface {
	// Send delivers sig to pid. It returns an error wrapping ErrProcessGone
	// or ErrPermissionDenied when those conditions are detected.
	Send(pid int, sig Signal) error
	// Alive reports whether pid still exists
	Alive(pid int) bool
	// Graded reports whether the platform distinguishes interrupt, terminate
	// and kill. Without it the protocol collapses to a single terminate call.
	Graded() bool
}
