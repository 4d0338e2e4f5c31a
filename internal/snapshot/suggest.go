package snapshot

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrNoFreePort is returned when every port in a suggestion range is taken
var ErrNoFreePort = errors.New("no free port found")

// PortAvailable reports whether a TCP listener can be bound to port right now.
// The listener is released immediately.
func PortAvailable(port uint16) bool {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(int(port)))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// Suggest returns the first port in [base, max] that can be bound
func Suggest(base, max uint16) (uint16, error) {
	return SuggestWith(base, max, PortAvailable, nil)
}

// SuggestWith returns the first port in [base, max] that is not skipped and
// for which available reports true. The bind probe is the ground truth: a
// port absent from any Snapshot may still be unbindable.
func SuggestWith(base, max uint16, available func(uint16) bool, skip func(uint16) bool) (uint16, error) {
	for p := int(base); p <= int(max); p++ {
		port := uint16(p)
		if skip != nil && skip(port) {
			continue
		}
		if available(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w in range %d-%d", ErrNoFreePort, base, max)
}
