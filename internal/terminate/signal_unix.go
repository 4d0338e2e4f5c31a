//go:build !windows

package terminate

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// NewSignaler returns the Signaler for the current platform
func NewSignaler() Signaler {
	return unixSignaler{}
}

type unixSignaler struct{}

func (unixSignaler) Send(pid int, sig Signal) error {
	// pid 0 and negative pids address process groups
	if pid <= 0 {
		return fmt.Errorf("%w: invalid pid %d", ErrProcessGone, pid)
	}

	var s unix.Signal
	switch sig {
	case Interrupt:
		s = unix.SIGINT
	case Terminate:
		s = unix.SIGTERM
	case Kill:
		s = unix.SIGKILL
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSignal, sig)
	}

	err := unix.Kill(pid, s)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%w: pid %d", ErrProcessGone, pid)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
	}
	return fmt.Errorf("failed to send %s to %d: %w", sig, pid, err)
}

// Alive uses signal 0; EPERM still means the process exists
func (unixSignaler) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func (unixSignaler) Graded() bool {
	return true
}
