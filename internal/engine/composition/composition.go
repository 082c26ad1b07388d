// Package composition tracks whether a multi-step text composition is in
// progress.
//
// The machine has two phases. Idle is both the initial state and the state
// between compositions:
//
//	Idle --Begin(start)--> Composing(start)
//	Composing --End(cause)--> Idle
//
// End is used for every exit. The cause records why the composition
// stopped so the caller can decide whether the remote engine must be told
// (a local finish or commit) or already knows (a remote reset or cancel).
package composition

import "fmt"

// Phase is the coarse state of the machine.
type Phase uint8

const (
	// Idle means no composition is active.
	Idle Phase = iota
	// Composing means candidate text is being edited.
	Composing
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	default:
		return "unknown"
	}
}

// State is the full machine state.
type State struct {
	Phase Phase
	// Start is the buffer offset where the composition began.
	// Only meaningful while composing.
	Start int
}

// String returns a string representation of the state.
func (s State) String() string {
	if s.Phase == Composing {
		return fmt.Sprintf("Composing(%d)", s.Start)
	}
	return "Idle"
}

// Cause describes why a transition happened.
type Cause uint8

const (
	CauseComposingText Cause = iota + 1
	CauseComposingRegion
	CauseFinish
	CauseCommit
	CauseNonOverlapping
	CauseDelete
	CauseKey
	CauseRemoteReset
	CauseRemoteCancel
	CauseTeardown
)

// String returns the cause name.
func (c Cause) String() string {
	switch c {
	case CauseComposingText:
		return "composing-text"
	case CauseComposingRegion:
		return "composing-region"
	case CauseFinish:
		return "finish"
	case CauseCommit:
		return "commit"
	case CauseNonOverlapping:
		return "non-overlapping-edit"
	case CauseDelete:
		return "delete"
	case CauseKey:
		return "key"
	case CauseRemoteReset:
		return "remote-reset"
	case CauseRemoteCancel:
		return "remote-cancel"
	case CauseTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Remote reports whether the remote engine initiated the transition, in
// which case it must not be echoed back as an outbound event.
func (c Cause) Remote() bool {
	return c == CauseRemoteReset || c == CauseRemoteCancel
}

// Transition is passed to observers after every phase change.
type Transition struct {
	From  State
	To    State
	Cause Cause
}

// Machine is the composition state machine. It is owned by a single loop
// and is not synchronized.
type Machine struct {
	state     State
	observers []func(Transition)
	begins    uint64
	ends      uint64
}

// New creates a machine in the Idle state.
func New() *Machine {
	return &Machine{}
}

// OnTransition registers an observer called after each phase change.
func (m *Machine) OnTransition(fn func(Transition)) {
	if fn != nil {
		m.observers = append(m.observers, fn)
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.state
}

// IsComposing reports whether a composition is active.
func (m *Machine) IsComposing() bool {
	return m.state.Phase == Composing
}

// Begin moves Idle to Composing(start). It returns false, leaving the
// state untouched, when a composition is already active.
func (m *Machine) Begin(start int, cause Cause) bool {
	if m.state.Phase == Composing {
		return false
	}
	m.transition(State{Phase: Composing, Start: start}, cause)
	m.begins++
	return true
}

// Rebase moves the start of an active composition, for example when the
// host re-targets the composing region.
func (m *Machine) Rebase(start int) {
	if m.state.Phase == Composing {
		m.state.Start = start
	}
}

// End moves Composing to Idle. It returns false when already Idle.
func (m *Machine) End(cause Cause) bool {
	if m.state.Phase == Idle {
		return false
	}
	m.transition(State{Phase: Idle}, cause)
	m.ends++
	return true
}

// Counts returns how many compositions began and ended.
func (m *Machine) Counts() (begins, ends uint64) {
	return m.begins, m.ends
}

func (m *Machine) transition(to State, cause Cause) {
	from := m.state
	m.state = to
	tr := Transition{From: from, To: to, Cause: cause}
	for _, fn := range m.observers {
		fn(tr)
	}
}
