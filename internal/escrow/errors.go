package escrow

// Kind groups domain error codes into the failure classes callers branch on.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthorized indicates the caller does not hold the required role.
	KindUnauthorized
	// KindInvalidState indicates the operation is illegal in the current contract state.
	KindInvalidState
	// KindInvalidID indicates a milestone index out of range.
	KindInvalidID
	// KindInvalidInput indicates a validation failure on operation input.
	KindInvalidInput
	// KindAlreadyDone indicates re-advancement of an already-advanced milestone.
	KindAlreadyDone
	// KindTransferFailed indicates the fund transfer gateway rejected a payout or refund.
	KindTransferFailed
)

const (
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeAlreadyInitialized    = "ALREADY_INITIALIZED"
	CodeInvalidParty          = "INVALID_PARTY"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidDeadline       = "INVALID_DEADLINE"
	CodeDepositMismatch       = "DEPOSIT_MISMATCH"
	CodeAlreadyStarted        = "ALREADY_STARTED"
	CodeNoFreelancer          = "NO_FREELANCER"
	CodeNoMilestones          = "NO_MILESTONES"
	CodeCancelBlocked         = "CANCEL_BLOCKED"
	CodeInvalidState          = "INVALID_STATE"
	CodeInvalidMilestoneID    = "INVALID_MILESTONE_ID"
	CodeAlreadySubmitted      = "ALREADY_SUBMITTED"
	CodeDeadlineExpired       = "DEADLINE_EXPIRED"
	CodeNotSubmitted          = "NOT_SUBMITTED"
	CodeAlreadyApproved       = "ALREADY_APPROVED"
	CodeAlreadyPaid           = "ALREADY_PAID"
	CodeDisputeInProgress     = "DISPUTE_IN_PROGRESS"
	CodeDisputeTargetMismatch = "DISPUTE_TARGET_MISMATCH"
	CodeEscrowUnderflow       = "ESCROW_UNDERFLOW"
	CodeTransferFailed        = "TRANSFER_FAILED"
)

// Error is a typed domain error carrying a machine-readable code.
type Error struct {
	Kind Kind
	Code string
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

// TransferFailed wraps a gateway failure so the caller can unwind the operation.
func TransferFailed(err error) *Error {
	return &Error{Kind: KindTransferFailed, Code: CodeTransferFailed, msg: "fund transfer failed", err: err}
}

var (
	ErrUnauthorized          = newError(KindUnauthorized, CodeUnauthorized, "caller does not hold the required role")
	ErrAlreadyInitialized    = newError(KindInvalidState, CodeAlreadyInitialized, "project is already initialized")
	ErrInvalidParty          = newError(KindInvalidInput, CodeInvalidParty, "freelancer and arbitrator must be distinct, non-null identities")
	ErrInvalidAmount         = newError(KindInvalidInput, CodeInvalidAmount, "milestone amount must be greater than zero")
	ErrInvalidDeadline       = newError(KindInvalidInput, CodeInvalidDeadline, "milestone deadline must be in the future")
	ErrDepositMismatch       = newError(KindInvalidInput, CodeDepositMismatch, "deposited value must equal the milestone amount")
	ErrAlreadyStarted        = newError(KindInvalidState, CodeAlreadyStarted, "project has already been started")
	ErrNoFreelancer          = newError(KindInvalidState, CodeNoFreelancer, "project has no freelancer assigned")
	ErrNoMilestones          = newError(KindInvalidState, CodeNoMilestones, "project has no milestones")
	ErrCancelBlocked         = newError(KindInvalidState, CodeCancelBlocked, "project cannot be cancelled after a milestone submission")
	ErrInvalidState          = newError(KindInvalidState, CodeInvalidState, "operation is not allowed in the current contract state")
	ErrInvalidMilestoneID    = newError(KindInvalidID, CodeInvalidMilestoneID, "milestone index out of range")
	ErrAlreadySubmitted      = newError(KindAlreadyDone, CodeAlreadySubmitted, "milestone has already been submitted")
	ErrDeadlineExpired       = newError(KindInvalidState, CodeDeadlineExpired, "milestone deadline has expired")
	ErrNotSubmitted          = newError(KindInvalidState, CodeNotSubmitted, "milestone has not been submitted")
	ErrAlreadyApproved       = newError(KindAlreadyDone, CodeAlreadyApproved, "milestone has already been approved")
	ErrAlreadyPaid           = newError(KindAlreadyDone, CodeAlreadyPaid, "milestone has already been paid")
	ErrDisputeInProgress     = newError(KindInvalidState, CodeDisputeInProgress, "another dispute is already in progress")
	ErrDisputeTargetMismatch = newError(KindInvalidInput, CodeDisputeTargetMismatch, "milestone is not the one under dispute")
	ErrEscrowUnderflow       = newError(KindInvalidState, CodeEscrowUnderflow, "escrow balance is lower than the required amount")
)
