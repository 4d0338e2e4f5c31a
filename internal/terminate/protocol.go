package terminate

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is how long the protocol waits before probing liveness
const DefaultDelay = time.Second

// Options is the caller's request for one termination
type Options struct {
	// Signal, when set, is sent exactly once instead of escalating
	Signal string
	// Force sends SIGKILL immediately
	Force bool
	// DryRun reports the intended action without sending anything
	DryRun bool
}

// Outcome describes how a termination ended
type Outcome struct {
	PID    int
	Phase  Phase
	Reason string
	Sent   []Signal
}

// Protocol drives the state machine against a Signaler
type Protocol struct {
	Signaler Signaler
	Delay    time.Duration
	Sleep    func(time.Duration)
	Out      io.Writer
	Log      *zap.SugaredLogger
}

// New creates a Protocol for the current platform that writes status lines to out
func New(out io.Writer, log *zap.SugaredLogger) *Protocol {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Protocol{
		Signaler: NewSignaler(),
		Delay:    DefaultDelay,
		Sleep:    time.Sleep,
		Out:      out,
		Log:      log,
	}
}

// Run terminates pid according to opts. Dry run takes precedence over
// force, and force over an explicit signal; the signal name is only parsed
// when it is going to be sent. A process that is already gone is a success.
// An unknown signal name fails before anything is sent; a refused delivery
// ends in PhaseGivenUp with the delivery error.
func (p *Protocol) Run(pid int, opts Options) (Outcome, error) {
	mode := ModeGraduated
	switch {
	case opts.DryRun:
		mode = ModeDryRun
	case opts.Force:
		mode = ModeForce
	case opts.Signal != "":
		mode = ModeExplicit
	}

	var requested Signal
	var parseErr error
	if opts.Signal != "" && mode != ModeForce {
		requested, parseErr = ParseSignal(opts.Signal)
		if parseErr != nil && mode == ModeExplicit {
			return Outcome{PID: pid, Phase: PhaseIdle}, parseErr
		}
	}

	state := NewState(mode, requested, !p.Signaler.Graded())
	if mode == ModeDryRun {
		plan := describePlan(opts.Force, requested, state.Collapsed)
		if parseErr != nil && !opts.Force {
			plan = fmt.Sprintf("%s (unknown signal)", opts.Signal)
		}
		p.status("Would send %s to process %d", plan, pid)
	}

	outcome := Outcome{PID: pid}
	var sendErr error

	state, action := Next(state, EventStart)
	for !state.Done() {
		var ev Event
		ev, sendErr = p.perform(pid, action)
		if ev != EventSendFailed && ev != EventSendGone {
			outcome.Sent = append(outcome.Sent, action.Signal)
		}
		state, action = Next(state, ev)
	}

	outcome.Phase = state.Phase
	outcome.Reason = state.Reason
	p.Log.Debugw("termination finished", "pid", pid, "phase", state.Phase.String(), "reason", state.Reason)

	if state.Phase == PhaseGivenUp {
		p.status("Process %d: %s", pid, state.Reason)
		return outcome, fmt.Errorf("failed to terminate process %d: %w", pid, sendErr)
	}
	if mode != ModeDryRun {
		p.status("Process %d: %s", pid, state.Reason)
	}
	return outcome, nil
}

// perform carries out one action and reports what was observed
func (p *Protocol) perform(pid int, action Action) (Event, error) {
	p.status("Sending %s to process %d", action.Signal, pid)

	if err := p.Signaler.Send(pid, action.Signal); err != nil {
		if errors.Is(err, ErrProcessGone) {
			return EventSendGone, nil
		}
		return EventSendFailed, err
	}

	if !action.Observe {
		return EventSent, nil
	}

	p.Sleep(p.Delay)
	if p.Signaler.Alive(pid) {
		p.Log.Debugw("process survived signal", "pid", pid, "signal", action.Signal.String())
		return EventAlive, nil
	}
	return EventGone, nil
}

func (p *Protocol) status(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// describePlan lists the signals a non-dry-run of the same request would send
func describePlan(force bool, requested Signal, collapsed bool) string {
	switch {
	case force:
		return Kill.String()
	case requested != 0:
		return requested.String()
	case collapsed:
		return Terminate.String()
	}
	return strings.Join([]string{Interrupt.String(), Terminate.String(), Kill.String()}, ", then ")
}
