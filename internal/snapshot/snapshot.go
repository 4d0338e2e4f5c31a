package snapshot

import (
	"sort"
	"time"
)

// Snapshot maps ports to the processes observed listening on them.
// It is immutable once built; refreshing means capturing a new one.
type Snapshot struct {
	byPort     map[uint16][]ProcessRecord
	capturedAt time.Time
}

// New builds a Snapshot from records, keeping insertion order per port
func New(records []ProcessRecord) *Snapshot {
	byPort := make(map[uint16][]ProcessRecord)
	for _, rec := range records {
		byPort[rec.Port] = append(byPort[rec.Port], rec)
	}
	return &Snapshot{byPort: byPort, capturedAt: time.Now()}
}

// CapturedAt returns when the snapshot was built
func (s *Snapshot) CapturedAt() time.Time {
	return s.capturedAt
}

// Len returns the number of ports with at least one listener
func (s *Snapshot) Len() int {
	return len(s.byPort)
}

// Lookup returns the processes listening on port. An empty result means
// nothing was observed there, not that the port is free.
func (s *Snapshot) Lookup(port uint16) []ProcessRecord {
	recs := s.byPort[port]
	if len(recs) == 0 {
		return nil
	}
	out := make([]ProcessRecord, len(recs))
	copy(out, recs)
	return out
}

// Ports returns every observed port in ascending order
func (s *Snapshot) Ports() []uint16 {
	ports := make([]uint16, 0, len(s.byPort))
	for port := range s.byPort {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// Scan returns the records for every port in [from, to], ascending by port.
// Records sharing a port keep their capture order.
func (s *Snapshot) Scan(from, to uint16) []ProcessRecord {
	var out []ProcessRecord
	for _, port := range s.Ports() {
		if port < from || port > to {
			continue
		}
		out = append(out, s.byPort[port]...)
	}
	return out
}

// All returns every record, ascending by port
func (s *Snapshot) All() []ProcessRecord {
	return s.Scan(0, 65535)
}
