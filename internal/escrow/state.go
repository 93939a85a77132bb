package escrow

// State is the single lifecycle value of a contract. It governs which
// operations are legal; Completed and Cancelled are terminal.
type State int

const (
	StateUnspecified State = iota
	// StateCreated indicates the contract is being set up: parties and
	// milestones may still be added.
	StateCreated
	// StateActive indicates the engagement is running: milestones may be
	// submitted, approved and disputed.
	StateActive
	// StateDisputed indicates exactly one milestone is under arbitration;
	// normal approval flow is suspended.
	StateDisputed
	// StateCompleted indicates every milestone has been paid. Terminal.
	StateCompleted
	// StateCancelled indicates the contract was cancelled and remaining
	// escrow refunded. Terminal.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateDisputed:
		return "disputed"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// ParseState maps a stored label back to a State.
func ParseState(label string) State {
	switch label {
	case "created":
		return StateCreated
	case "active":
		return StateActive
	case "disputed":
		return StateDisputed
	case "completed":
		return StateCompleted
	case "cancelled":
		return StateCancelled
	default:
		return StateUnspecified
	}
}

// Terminal reports whether no further lifecycle mutation is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}
