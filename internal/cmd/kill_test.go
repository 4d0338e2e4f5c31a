package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
	"github.com/thatjpcsguy/crossport/internal/terminate"
)

func init() {
	color.NoColor = true
}

type fakeTerminator struct {
	ran  []int
	fail map[int]error
}

func (f *fakeTerminator) Run(pid int, opts terminate.Options) (terminate.Outcome, error) {
	f.ran = append(f.ran, pid)
	if err := f.fail[pid]; err != nil {
		return terminate.Outcome{PID: pid, Phase: terminate.PhaseGivenUp}, err
	}
	return terminate.Outcome{PID: pid, Phase: terminate.PhaseTerminated}, nil
}

func uid(v uint32) *uint32 { return &v }

func TestKillGuard(t *testing.T) {
	tests := []struct {
		name     string
		guard    killGuard
		rec      snapshot.ProcessRecord
		wantSkip bool
	}{
		{"own dev process", killGuard{uid: 501}, snapshot.ProcessRecord{UID: uid(501), Kind: snapshot.KindDev}, false},
		{"system process", killGuard{uid: 501}, snapshot.ProcessRecord{UID: uid(501), Kind: snapshot.KindSystem}, true},
		{"system with all users", killGuard{uid: 501, allUsers: true}, snapshot.ProcessRecord{Kind: snapshot.KindSystem}, false},
		{"other user", killGuard{uid: 501}, snapshot.ProcessRecord{UID: uid(0), User: "root"}, true},
		{"other user with all users", killGuard{uid: 501, allUsers: true}, snapshot.ProcessRecord{UID: uid(0)}, false},
		{"running as root", killGuard{uid: 0}, snapshot.ProcessRecord{UID: uid(501)}, false},
		{"unknown owner", killGuard{uid: 501}, snapshot.ProcessRecord{User: "unknown"}, false},
		{"no uids on platform", killGuard{uid: -1}, snapshot.ProcessRecord{UID: uid(7)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := tt.guard.skipReason(tt.rec)
			if (reason != "") != tt.wantSkip {
				t.Errorf("skipReason() = %q, wantSkip %v", reason, tt.wantSkip)
			}
		})
	}
}

func TestKillerContinuesAfterFailure(t *testing.T) {
	denied := errors.New("permission denied")
	fake := &fakeTerminator{fail: map[int]error{10: denied}}
	var out bytes.Buffer

	k := &killer{guard: killGuard{uid: 0}, protocol: fake, out: &out}
	err := k.run([]snapshot.ProcessRecord{
		{PID: 10, Port: 3000},
		{PID: 20, Port: 3000},
	})

	if len(fake.ran) != 2 {
		t.Errorf("ran = %v, want both pids attempted", fake.ran)
	}
	if !errors.Is(err, denied) {
		t.Errorf("run() error = %v, want joined permission error", err)
	}
}

func TestKillerSkipsGuardedAndDeclined(t *testing.T) {
	fake := &fakeTerminator{}
	var out bytes.Buffer

	k := &killer{
		guard:    killGuard{uid: 501},
		protocol: fake,
		out:      &out,
		confirm:  func(rec snapshot.ProcessRecord) bool { return rec.PID != 30 },
	}
	err := k.run([]snapshot.ProcessRecord{
		{PID: 10, Kind: snapshot.KindSystem, Port: 80},
		{PID: 20, Kind: snapshot.KindDev, Port: 80},
		{PID: 30, Kind: snapshot.KindDev, Port: 80},
	})
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}

	if len(fake.ran) != 1 || fake.ran[0] != 20 {
		t.Errorf("ran = %v, want [20]", fake.ran)
	}
	if !strings.Contains(out.String(), "Skipping process 10: system process") {
		t.Errorf("missing system skip notice:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Skipped.") {
		t.Errorf("missing declined notice:\n%s", out.String())
	}
}

func TestPromptConfirm(t *testing.T) {
	var out bytes.Buffer
	confirm := promptConfirm(strings.NewReader("y\nn\nY\n"), &out)

	got := []bool{
		confirm(snapshot.ProcessRecord{PID: 1}),
		confirm(snapshot.ProcessRecord{PID: 2}),
		confirm(snapshot.ProcessRecord{PID: 3}),
		confirm(snapshot.ProcessRecord{PID: 4}),
	}
	want := []bool{true, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("answer %d = %v, want %v", i, got[i], want[i])
		}
	}
	if !strings.Contains(out.String(), "Kill process 1? [y/N]") {
		t.Errorf("prompt = %q", out.String())
	}
}
