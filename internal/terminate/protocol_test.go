package terminate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeSignaler records sent signals. alive holds the liveness answers returned
// in order; once exhausted the process is reported gone.
type fakeSignaler struct {
	sent    []Signal
	alive   []bool
	sendErr map[Signal]error
	graded  bool
}

func (f *fakeSignaler) Send(pid int, sig Signal) error {
	if err, ok := f.sendErr[sig]; ok {
		return err
	}
	f.sent = append(f.sent, sig)
	return nil
}

func (f *fakeSignaler) Alive(pid int) bool {
	if len(f.alive) == 0 {
		return false
	}
	a := f.alive[0]
	f.alive = f.alive[1:]
	return a
}

func (f *fakeSignaler) Graded() bool { return f.graded }

func newTestProtocol(sig *fakeSignaler) (*Protocol, *bytes.Buffer, *[]time.Duration) {
	var out bytes.Buffer
	var sleeps []time.Duration
	p := New(&out, nil)
	p.Signaler = sig
	p.Delay = 5 * time.Second
	p.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return p, &out, &sleeps
}

func TestRun_DryRunSendsNothing(t *testing.T) {
	sig := &fakeSignaler{graded: true}
	p, out, sleeps := newTestProtocol(sig)

	outcome, err := p.Run(4242, Options{DryRun: true, Force: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sig.sent) != 0 || len(outcome.Sent) != 0 {
		t.Errorf("dry run sent %v", sig.sent)
	}
	if len(*sleeps) != 0 {
		t.Errorf("dry run slept %v", *sleeps)
	}
	if outcome.Phase != PhaseTerminated {
		t.Errorf("Phase = %v, want terminated", outcome.Phase)
	}
	if !strings.Contains(out.String(), "4242") || !strings.Contains(out.String(), "SIGKILL") {
		t.Errorf("dry run output = %q, want pid and intended signal", out.String())
	}
}

func TestRun_ForceSendsSingleKill(t *testing.T) {
	sig := &fakeSignaler{graded: true, alive: []bool{true, true}}
	p, _, sleeps := newTestProtocol(sig)

	outcome, err := p.Run(10, Options{Force: true, Signal: "INT"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !equalSignals(sig.sent, []Signal{Kill}) {
		t.Errorf("sent = %v, want only SIGKILL", sig.sent)
	}
	if len(*sleeps) != 0 {
		t.Errorf("force path should not wait, slept %v", *sleeps)
	}
	if outcome.Phase != PhaseTerminated {
		t.Errorf("Phase = %v", outcome.Phase)
	}
}

func TestRun_ForceIgnoresSignalName(t *testing.T) {
	sig := &fakeSignaler{graded: true}
	p, _, _ := newTestProtocol(sig)

	outcome, err := p.Run(42, Options{Signal: "HUP", Force: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !equalSignals(sig.sent, []Signal{Kill}) {
		t.Errorf("sent = %v, want only SIGKILL", sig.sent)
	}
	if outcome.Phase != PhaseTerminated {
		t.Errorf("Phase = %v, want terminated", outcome.Phase)
	}
}

func TestRun_DryRunWithUnknownSignal(t *testing.T) {
	sig := &fakeSignaler{graded: true}
	p, out, _ := newTestProtocol(sig)

	outcome, err := p.Run(42, Options{Signal: "HUP", DryRun: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sig.sent) != 0 {
		t.Errorf("dry run sent %v", sig.sent)
	}
	if outcome.Phase != PhaseTerminated {
		t.Errorf("Phase = %v, want terminated", outcome.Phase)
	}
	if !strings.Contains(out.String(), "process 42") {
		t.Errorf("dry run output = %q, want the intended pid", out.String())
	}
}

func TestRun_ExplicitSignal(t *testing.T) {
	sig := &fakeSignaler{graded: true}
	p, _, _ := newTestProtocol(sig)

	if _, err := p.Run(10, Options{Signal: "term"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !equalSignals(sig.sent, []Signal{Terminate}) {
		t.Errorf("sent = %v, want only SIGTERM", sig.sent)
	}
}

func TestRun_UnknownSignalAbortsBeforeSending(t *testing.T) {
	sig := &fakeSignaler{graded: true}
	p, _, _ := newTestProtocol(sig)

	outcome, err := p.Run(10, Options{Signal: "HUP"})
	if !errors.Is(err, ErrUnknownSignal) {
		t.Fatalf("Run() error = %v, want ErrUnknownSignal", err)
	}
	if len(sig.sent) != 0 {
		t.Errorf("sent = %v, want nothing", sig.sent)
	}
	if outcome.Phase != PhaseIdle {
		t.Errorf("Phase = %v, want idle", outcome.Phase)
	}
}

func TestRun_GraduatedEscalation(t *testing.T) {
	tests := []struct {
		name       string
		alive      []bool
		wantSent   []Signal
		wantSleeps int
		wantReason string
	}{
		{"interrupt suffices", nil, []Signal{Interrupt}, 1, "exited after interrupt"},
		{"terminate suffices", []bool{true}, []Signal{Interrupt, Terminate}, 2, "exited after terminate"},
		{"kill required", []bool{true, true}, []Signal{Interrupt, Terminate, Kill}, 2, "forced after exhausting graduated signals"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := &fakeSignaler{graded: true, alive: tc.alive}
			p, out, sleeps := newTestProtocol(sig)

			outcome, err := p.Run(77, Options{})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if !equalSignals(sig.sent, tc.wantSent) {
				t.Errorf("sent = %v, want %v", sig.sent, tc.wantSent)
			}
			if len(*sleeps) != tc.wantSleeps {
				t.Errorf("slept %d times, want %d", len(*sleeps), tc.wantSleeps)
			}
			for _, d := range *sleeps {
				if d != 5*time.Second {
					t.Errorf("slept %v, want configured delay", d)
				}
			}
			if outcome.Reason != tc.wantReason {
				t.Errorf("Reason = %q, want %q", outcome.Reason, tc.wantReason)
			}
			if !strings.Contains(out.String(), tc.wantReason) {
				t.Errorf("status output %q missing reason", out.String())
			}
		})
	}
}

func TestRun_AlreadyGone(t *testing.T) {
	sig := &fakeSignaler{graded: true, sendErr: map[Signal]error{
		Interrupt: fmt.Errorf("%w: pid 5", ErrProcessGone),
	}}
	p, _, sleeps := newTestProtocol(sig)

	outcome, err := p.Run(5, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if outcome.Reason != "not found or already exited" {
		t.Errorf("Reason = %q", outcome.Reason)
	}
	if len(*sleeps) != 0 || len(outcome.Sent) != 0 {
		t.Errorf("should stop after first failed send, sleeps=%v sent=%v", *sleeps, outcome.Sent)
	}
}

func TestRun_PermissionDenied(t *testing.T) {
	sig := &fakeSignaler{graded: true, sendErr: map[Signal]error{
		Interrupt: fmt.Errorf("%w: pid 1", ErrPermissionDenied),
	}}
	p, _, _ := newTestProtocol(sig)

	outcome, err := p.Run(1, Options{})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Run() error = %v, want ErrPermissionDenied", err)
	}
	if outcome.Phase != PhaseGivenUp {
		t.Errorf("Phase = %v, want given up", outcome.Phase)
	}
}

func TestRun_CollapsedPlatform(t *testing.T) {
	sig := &fakeSignaler{graded: false, alive: []bool{true, true}}
	p, _, sleeps := newTestProtocol(sig)

	outcome, err := p.Run(3, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !equalSignals(sig.sent, []Signal{Terminate}) {
		t.Errorf("sent = %v, want single terminate", sig.sent)
	}
	if len(*sleeps) != 0 {
		t.Errorf("collapsed path should not probe, slept %v", *sleeps)
	}
	if outcome.Reason != "terminate requested" {
		t.Errorf("Reason = %q", outcome.Reason)
	}
}
