// Package listeners enumerates TCP sockets in LISTEN state and the pids that own them.
package listeners

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrToolUnavailable is returned when the socket enumeration tool cannot be executed.
var ErrToolUnavailable = errors.New("socket enumeration tool unavailable")

// Listener pairs a process id with a port it is listening on
type Listener struct {
	PID  int
	Port uint16
}

// runFunc executes a command and returns its stdout
type runFunc func(name string, args ...string) ([]byte, error)

// Reader reads listening sockets using the platform's socket tooling
type Reader struct {
	goos string
	run  runFunc
	log  *zap.SugaredLogger
}

// NewReader creates a Reader for the current platform
func NewReader(log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{
		goos: runtime.GOOS,
		run:  runCommand,
		log:  log,
	}
}

// List returns every (pid, port) pair currently in LISTEN state.
// An empty result is a valid inventory.
func (r *Reader) List() ([]Listener, error) {
	if r.goos == "windows" {
		out, err := r.run("netstat", "-ano")
		if err != nil {
			return nil, err
		}
		return ParseNetstat(string(out)), nil
	}

	out, err := r.run("lsof", "-iTCP", "-sTCP:LISTEN", "-P", "-n", "-F", "pn")
	if err == nil {
		return ParseLsof(string(out)), nil
	}

	// Minimal Linux installs often ship ss but not lsof
	if r.goos == "linux" && errors.Is(err, ErrToolUnavailable) {
		r.log.Debugw("lsof unavailable, falling back to ss", "error", err)
		out, ssErr := r.run("ss", "-tlnpH")
		if ssErr != nil {
			return nil, fmt.Errorf("%w (ss fallback: %v)", err, ssErr)
		}
		return ParseSS(string(out)), nil
	}

	return nil, err
}

// runCommand runs a tool and returns its stdout. lsof exits 1 when nothing
// matches, so that exit is an empty result unless stderr reports a real
// problem. Any other failure is an error.
func runCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if emptyResultExit(exitErr.ExitCode(), string(exitErr.Stderr)) {
				return output, nil
			}
			return nil, fmt.Errorf("%s exited with status %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: failed to execute %s: %v", ErrToolUnavailable, name, err)
	}
	return output, nil
}

// emptyResultExit reports whether a failed run means "no matches": exit
// status 1 with stderr empty or carrying only lsof warnings.
func emptyResultExit(code int, stderr string) bool {
	if code != 1 {
		return false
	}
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "WARNING") || strings.HasPrefix(line, "Output information may be incomplete") {
			continue
		}
		return false
	}
	return true
}

// parsePort extracts the port after the last colon of an address.
// Handles "*:3000", "127.0.0.1:3000", "[::1]:3000" and "[::]:135".
func parsePort(addr string) (uint16, bool) {
	idx := strings.LastIndex(addr, ":")
	if idx == -1 {
		return 0, false
	}
	port, err := strconv.ParseUint(addr[idx+1:], 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}
