package terminate

import "fmt"

// Mode selects how the protocol escalates
type Mode int

const (
	ModeGraduated Mode = iota
	ModeForce
	ModeExplicit
	ModeDryRun
)

// Phase is the coarse protocol state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEscalating
	PhaseTerminated
	PhaseGivenUp
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEscalating:
		return "escalating"
	case PhaseTerminated:
		return "terminated"
	case PhaseGivenUp:
		return "given up"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Event is what the driver observed after carrying out the last action
type Event int

const (
	// EventStart kicks the machine out of Idle
	EventStart Event = iota
	// EventSent means the signal was delivered and no observation was requested
	EventSent
	// EventAlive means the process still existed after the observation delay
	EventAlive
	// EventGone means the process was gone after the observation delay
	EventGone
	// EventSendGone means the signal could not be delivered because the process does not exist
	EventSendGone
	// EventSendFailed means signal delivery was refused or errored
	EventSendFailed
)

// Action tells the driver what to do next
type Action struct {
	// Signal to send; zero means nothing to send
	Signal Signal
	// Observe asks the driver to wait the observation delay and probe liveness
	Observe bool
}

// None reports whether the action sends nothing
func (a Action) None() bool {
	return a.Signal == 0
}

// State is the transient protocol state for one pid
type State struct {
	Mode      Mode
	Phase     Phase
	Stage     Signal
	Requested Signal
	Collapsed bool
	Reason    string
	// sent counts delivered signals so a failure on the very first send can be told apart
	sent int
}

// NewState returns an Idle state. requested is only used by ModeExplicit.
// collapsed selects the single-call path for platforms without signal granularity.
func NewState(mode Mode, requested Signal, collapsed bool) State {
	return State{Mode: mode, Phase: PhaseIdle, Requested: requested, Collapsed: collapsed}
}

// Done reports whether the machine reached a final phase
func (s State) Done() bool {
	return s.Phase == PhaseTerminated || s.Phase == PhaseGivenUp
}

// Next is the pure transition function of the protocol
func Next(s State, ev Event) (State, Action) {
	if s.Done() {
		return s, Action{}
	}

	if s.Phase == PhaseIdle {
		return start(s)
	}

	switch ev {
	case EventSendGone:
		if s.sent == 0 {
			return finish(s, "not found or already exited"), Action{}
		}
		return finish(s, fmt.Sprintf("exited before %s", s.Stage)), Action{}
	case EventSendFailed:
		s.Phase = PhaseGivenUp
		s.Reason = fmt.Sprintf("failed to send %s", s.Stage)
		return s, Action{}
	}

	s.sent++

	switch s.Mode {
	case ModeForce:
		return finish(s, fmt.Sprintf("sent %s", Kill)), Action{}
	case ModeExplicit:
		return finish(s, fmt.Sprintf("sent %s", s.Requested)), Action{}
	}

	if s.Collapsed {
		return finish(s, "terminate requested"), Action{}
	}

	switch s.Stage {
	case Interrupt:
		if ev == EventGone {
			return finish(s, "exited after interrupt"), Action{}
		}
		return escalate(s, Terminate, true)
	case Terminate:
		if ev == EventGone {
			return finish(s, "exited after terminate"), Action{}
		}
		return escalate(s, Kill, false)
	default:
		return finish(s, "forced after exhausting graduated signals"), Action{}
	}
}

func start(s State) (State, Action) {
	switch s.Mode {
	case ModeDryRun:
		return finish(s, "dry run, nothing sent"), Action{}
	case ModeForce:
		return escalate(s, Kill, false)
	case ModeExplicit:
		return escalate(s, s.Requested, false)
	}
	if s.Collapsed {
		return escalate(s, Terminate, false)
	}
	return escalate(s, Interrupt, true)
}

func escalate(s State, sig Signal, observe bool) (State, Action) {
	s.Phase = PhaseEscalating
	s.Stage = sig
	return s, Action{Signal: sig, Observe: observe}
}

func finish(s State, reason string) State {
	s.Phase = PhaseTerminated
	s.Reason = reason
	return s
}
