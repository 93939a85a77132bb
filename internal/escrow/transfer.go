package escrow

// TransferKind names the movement of funds an operation requires.
type TransferKind int

const (
	// TransferDeposit moves a milestone deposit from the client wallet into escrow.
	TransferDeposit TransferKind = iota + 1
	// TransferRelease pays a milestone amount from escrow to the freelancer.
	TransferRelease
	// TransferRefund returns remaining escrow to the client on cancellation.
	TransferRefund
)

func (k TransferKind) String() string {
	switch k {
	case TransferDeposit:
		return "deposit"
	case TransferRelease:
		return "release"
	case TransferRefund:
		return "refund"
	default:
		return "unknown"
	}
}

// Transfer is an instruction for the fund transfer gateway. The gateway call
// is the single external effect of an operation: the caller must commit the
// staged aggregate mutation only if every transfer succeeds.
type Transfer struct {
	Kind   TransferKind
	Amount uint64
}

// Result carries the effects of a successful operation: the ordered audit
// events to emit and the fund transfers to execute before commit.
type Result struct {
	Events    []Event
	Transfers []Transfer
}
