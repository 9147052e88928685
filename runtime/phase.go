package runtime

// Phase is the Runtime's position in the call-ordering state machine
// (spec §4.3).
type Phase uint8

const (
	// Fresh is entered once construction completes (getModelDescription
	// has succeeded). Only initialize and load_state are legal.
	Fresh Phase = iota
	// Initialized is entered after initialize or load_state succeeds.
	// get_values, set_values, and do_step are legal; initialize and
	// load_state remain legal and reset the simulation.
	Initialized
	// Stepping is entered after the first successful do_step. Behaves
	// identically to Initialized for call-ordering purposes.
	Stepping
	// Terminated is entered on Close, or when a guest call fails in a
	// way the protocol marks unrecoverable (LinkError,
	// LinearMemoryOverflow, a non-description BufferTooSmall, or
	// GuestStatus Fatal). No further guest calls are made.
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Fresh:
		return "Fresh"
	case Initialized:
		return "Initialized"
	case Stepping:
		return "Stepping"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// canStep reports whether do_step, get_values, or set_values may be
// invoked from p.
func (p Phase) canStep() bool {
	return p == Initialized || p == Stepping
}
