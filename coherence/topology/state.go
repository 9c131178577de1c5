package topology

// State is the progress of a build. A build moves through the states in
// order and never goes back.
type State int

// Build states.
const (
	StateIdle State = iota
	StateControllersCreated
	StateSequencersBound
	StateClustered
	StateWired
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateControllersCreated:
		return "ControllersCreated"
	case StateSequencersBound:
		return "SequencersBound"
	case StateClustered:
		return "Clustered"
	case StateWired:
		return "Wired"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
