// Package proctable takes a point-in-time snapshot of the OS process table.
package proctable

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"
)

// UnknownUser is reported when a process owner cannot be resolved
const UnknownUser = "unknown"

// Process holds the fields of one process needed for port correlation
type Process struct {
	PID     int
	User    string
	UID     *uint32
	Command string
	Cwd     string
}

// Table is a read-only pid -> Process snapshot
type Table map[int]Process

// Lookup returns the process for pid, if it was present when the table was taken
func (t Table) Lookup(pid int) (Process, bool) {
	p, ok := t[pid]
	return p, ok
}

// Reader captures process tables from the running system
type Reader struct {
	lookupUser func(uid string) (string, error)
}

// NewReader creates a Reader backed by gopsutil
func NewReader() *Reader {
	return &Reader{
		lookupUser: func(uid string) (string, error) {
			u, err := user.LookupId(uid)
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
	}
}

// Snapshot lists every process once. Per-process read failures (exited
// between listing and reading, permission denied) leave fields empty rather
// than failing the snapshot.
func (r *Reader) Snapshot() (Table, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	users := newUserCache(r.lookupUser)
	table := make(Table, len(procs))

	for _, p := range procs {
		name, _ := p.Name()
		cwd, _ := p.Cwd()

		entry := Process{
			PID:     int(p.Pid),
			User:    UnknownUser,
			Command: name,
			Cwd:     cwd,
		}

		if uids, err := p.Uids(); err == nil && len(uids) > 0 {
			// Real uid is the first entry
			uid := uids[0]
			entry.UID = &uid
			entry.User = users.name(uid)
		} else if username, err := p.Username(); err == nil && username != "" {
			entry.User = username
		}

		table[entry.PID] = entry
	}

	return table, nil
}

// userCache resolves each uid at most once per snapshot
type userCache struct {
	lookup func(uid string) (string, error)
	names  map[uint32]string
}

func newUserCache(lookup func(uid string) (string, error)) *userCache {
	return &userCache{lookup: lookup, names: make(map[uint32]string)}
}

func (c *userCache) name(uid uint32) string {
	if name, ok := c.names[uid]; ok {
		return name
	}
	name, err := c.lookup(strconv.FormatUint(uint64(uid), 10))
	if err != nil || name == "" {
		name = UnknownUser
	}
	c.names[uid] = name
	return name
}
