// Package docker reads published host ports from a docker-compatible runtime CLI.
package docker

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// psFormat asks the runtime for a two column listing: name, port bindings
const psFormat = "{{.Names}}\t{{.Ports}}"

// maxRangeSpan bounds how many ports a single published range may expand to
const maxRangeSpan = 1024

// Runtime queries a docker-compatible container runtime CLI
type Runtime struct {
	Binary string
	run    func(name string, args ...string) ([]byte, error)
	log    *zap.SugaredLogger
}

// NewRuntime creates a Runtime for the given binary (docker, podman).
// An empty binary defaults to docker.
func NewRuntime(binary string, log *zap.SugaredLogger) *Runtime {
	if binary == "" {
		binary = "docker"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runtime{
		Binary: binary,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
		log: log,
	}
}

// PortMap returns host port -> container name for every published port of a
// running container. A missing or stopped runtime yields an empty map.
func (r *Runtime) PortMap() map[uint16]string {
	output, err := r.run(r.Binary, "ps", "--format", psFormat)
	if err != nil {
		r.log.Debugw("container runtime unavailable", "runtime", r.Binary, "error", err)
		return map[uint16]string{}
	}
	return ParsePS(string(output))
}

// ParsePS parses `docker ps --format "{{.Names}}\t{{.Ports}}"` output.
//
//	my-container	0.0.0.0:8080->80/tcp, :::8080->80/tcp
func ParsePS(output string) map[uint16]string {
	ports := make(map[uint16]string)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		name, bindings, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		for _, binding := range strings.Split(bindings, ",") {
			hostPorts, err := parseBinding(strings.TrimSpace(binding))
			if err != nil {
				continue
			}
			for _, port := range hostPorts {
				ports[port] = name
			}
		}
	}

	return ports
}

// parseBinding returns the host ports of one binding. The host port is the
// value after the last colon preceding "->":
//
//	0.0.0.0:8080->80/tcp       -> 8080
//	:::8080->80/tcp            -> 8080
//	0.0.0.0:8000-8002->80/tcp  -> 8000, 8001, 8002
func parseBinding(binding string) ([]uint16, error) {
	host, _, ok := strings.Cut(binding, "->")
	if !ok {
		return nil, fmt.Errorf("binding %q is not published", binding)
	}

	idx := strings.LastIndex(host, ":")
	if idx == -1 {
		return nil, fmt.Errorf("binding %q has no host port", binding)
	}
	portSpec := host[idx+1:]

	first, last, isRange := strings.Cut(portSpec, "-")
	lo, err := strconv.ParseUint(first, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid host port in %q: %w", binding, err)
	}
	if !isRange {
		return []uint16{uint16(lo)}, nil
	}

	hi, err := strconv.ParseUint(last, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid host port range in %q: %w", binding, err)
	}
	if hi < lo || hi-lo >= maxRangeSpan {
		return nil, fmt.Errorf("unsupported host port range in %q", binding)
	}

	ports := make([]uint16, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		ports = append(ports, uint16(p))
	}
	return ports, nil
}
