package proctable

import (
	"errors"
	"os"
	"testing"
)

func TestUserCacheResolvesOnce(t *testing.T) {
	calls := 0
	c := newUserCache(func(uid string) (string, error) {
		calls++
		if uid == "501" {
			return "alice", nil
		}
		return "", errors.New("unknown uid")
	})

	for i := 0; i < 3; i++ {
		if got := c.name(501); got != "alice" {
			t.Errorf("name(501) = %q, want alice", got)
		}
	}
	if got := c.name(999); got != UnknownUser {
		t.Errorf("name(999) = %q, want %q", got, UnknownUser)
	}
	c.name(999)

	if calls != 2 {
		t.Errorf("lookup called %d times, want 2", calls)
	}
}

func TestSnapshotContainsCurrentProcess(t *testing.T) {
	table, err := NewReader().Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	self, ok := table.Lookup(os.Getpid())
	if !ok {
		t.Fatal("Snapshot() should contain the test process")
	}
	if self.Command == "" {
		t.Error("current process should have a command name")
	}
}

func TestTableLookupMissing(t *testing.T) {
	table := Table{1: {PID: 1, User: "root"}}
	if _, ok := table.Lookup(2); ok {
		t.Error("Lookup(2) should report missing pid")
	}
}
