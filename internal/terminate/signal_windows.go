//go:build windows

package terminate

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// NewSignaler returns the Signaler for the current platform
func NewSignaler() Signaler {
	return windowsSignaler{}
}

// windowsSignaler maps KILL to a forced taskkill and everything else to a
// graceful close request. taskkill is synchronous, so no probing is needed.
type windowsSignaler struct{}

func (windowsSignaler) Send(pid int, sig Signal) error {
	if pid <= 0 {
		return fmt.Errorf("%w: invalid pid %d", ErrProcessGone, pid)
	}

	args := []string{"/PID", strconv.Itoa(pid)}
	if sig == Kill {
		args = append(args, "/F")
	}

	output, err := exec.Command("taskkill", args...).CombinedOutput()
	if err == nil {
		return nil
	}

	msg := strings.TrimSpace(string(output))
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found"):
		return fmt.Errorf("%w: pid %d", ErrProcessGone, pid)
	case strings.Contains(lower, "access is denied"):
		return fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
	}
	return fmt.Errorf("taskkill failed for %d: %s: %w", pid, msg, err)
}

func (windowsSignaler) Alive(pid int) bool {
	output, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH").Output()
	if err != nil {
		return false
	}
	for _, field := range strings.Fields(string(output)) {
		if field == strconv.Itoa(pid) {
			return true
		}
	}
	return false
}

func (windowsSignaler) Graded() bool {
	return false
}
