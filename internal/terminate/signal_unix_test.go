//go:build !windows

package terminate

import (
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestUnixSignaler_RejectsGroupPIDs(t *testing.T) {
	s := NewSignaler()
	for _, pid := range []int{0, -1} {
		if err := s.Send(pid, Kill); !errors.Is(err, ErrProcessGone) {
			t.Errorf("Send(%d) error = %v, want ErrProcessGone", pid, err)
		}
		if s.Alive(pid) {
			t.Errorf("Alive(%d) = true, want false", pid)
		}
	}
}

func TestRun_RealChildExitsAfterInterrupt(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	defer func() {
		_ = cmd.Process.Kill()
		<-done
	}()

	p := New(nil, nil)
	p.Delay = 300 * time.Millisecond

	outcome, err := p.Run(cmd.Process.Pid, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if outcome.Phase != PhaseTerminated {
		t.Errorf("Phase = %v, want terminated", outcome.Phase)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("child still running after protocol finished")
	}
}
