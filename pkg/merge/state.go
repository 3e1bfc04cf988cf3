package merge

// State is a step of the merge state machine.
type State string

// Merge states, in the order a successful merge passes through them.
const (
	StateStart        State = "start"
	StateSuffixed     State = "suffixed"
	StateImported     State = "imported"
	StateMapped       State = "mapped"
	StateConflictGate State = "conflict-gate"
	StateApplying     State = "applying"
	StateRemapping    State = "remapping"
	StatePurged       State = "purged"
	StateUnsuffixed   State = "unsuffixed"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// String returns the string representation of a State.
func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StateStart:        {StateSuffixed},
	StateSuffixed:     {StateImported},
	StateImported:     {StateMapped},
	StateMapped:       {StateConflictGate},
	StateConflictGate: {StateApplying, StateAborted},
	StateApplying:     {StateRemapping},
	StateRemapping:    {StatePurged},
	StatePurged:       {StateUnsuffixed},
	StateUnsuffixed:   {StateDone},
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Direction says which way a merge moves data.
type Direction string

// Merge directions.
const (
	// Pull brings published work into the working copy.
	Pull Direction = "pull"
	// Push brings the working copy's local task layers into the published copy.
	Push Direction = "push"
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	return string(d)
}

// Valid reports whether d is Pull or Push.
func (d Direction) Valid() bool {
	return d == Pull || d == Push
}

// Hook statuses passed to a HookRunner.
const (
	HookPre  = "pre"
	HookPost = "post"
)
