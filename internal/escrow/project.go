// Package escrow implements the contract state machine for an escrow-backed
// milestone engagement between a client and a freelancer, mediated by an
// arbitrator. The aggregate is pure: operations validate the caller role,
// check the lifecycle state, mutate the aggregate in memory and return the
// ordered audit events plus any fund transfer the operation requires. The
// caller is responsible for committing the mutation atomically with the
// transfers.
package escrow

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Milestone is a discrete deliverable with its own payment amount and
// deadline. Once Paid is true no field may change.
type Milestone struct {
	Description string
	Amount      uint64
	Deadline    time.Time
	Submitted   bool
	Approved    bool
	Paid        bool
}

// Project is the single contract aggregate. Invariant at all times:
// EscrowBalance == TotalAmount - sum of paid milestone amounts - refunds.
type Project struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	FreelancerID uuid.UUID
	ArbitratorID uuid.UUID
	Title        string

	TotalAmount   uint64
	EscrowBalance uint64

	State     State
	Completed bool
	Cancelled bool

	DisputeActive bool
	// DisputedMilestone is the index raised by the active dispute, -1 otherwise.
	DisputedMilestone int

	Milestones []Milestone
}

// NewProject creates a contract in the Created state owned by the client.
func NewProject(id, clientID uuid.UUID, title string) (*Project, Result, error) {
	if clientID == uuid.Nil {
		return nil, Result{}, ErrInvalidParty
	}
	p := &Project{
		ID:                id,
		ClientID:          clientID,
		Title:             strings.TrimSpace(title),
		State:             StateCreated,
		DisputedMilestone: -1,
	}
	res := Result{Events: []Event{{
		Type:    EventProjectCreated,
		ActorID: clientID,
		Payload: ProjectCreatedPayload{Title: p.Title, ClientID: clientID},
	}}}
	return p, res, nil
}

// Setup assigns the freelancer and arbitrator. The freelancer is permanent
// once set; the three parties must be distinct identities.
func (p *Project) Setup(caller, freelancer, arbitrator uuid.UUID, title string) (Result, error) {
	if err := p.requireRole(caller, RoleClient); err != nil {
		return Result{}, err
	}
	if p.State != StateCreated || p.FreelancerID != uuid.Nil {
		return Result{}, ErrAlreadyInitialized
	}
	if freelancer == uuid.Nil || arbitrator == uuid.Nil {
		return Result{}, ErrInvalidParty
	}
	if freelancer == p.ClientID || arbitrator == p.ClientID || freelancer == arbitrator {
		return Result{}, ErrInvalidParty
	}
	p.FreelancerID = freelancer
	p.ArbitratorID = arbitrator
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		p.Title = trimmed
	}
	return Result{Events: []Event{{
		Type:    EventProjectSetup,
		ActorID: caller,
		Payload: ProjectSetupPayload{FreelancerID: freelancer, ArbitratorID: arbitrator, Title: p.Title},
	}}}, nil
}

// AddMilestone appends a milestone funded exactly by the deposited value.
// Legal only while the contract is in the Created state.
func (p *Project) AddMilestone(caller uuid.UUID, description string, amount, deposit uint64, deadline, now time.Time) (Result, error) {
	if err := p.requireRole(caller, RoleClient); err != nil {
		return Result{}, err
	}
	if p.State != StateCreated {
		return Result{}, ErrInvalidState
	}
	if amount == 0 {
		return Result{}, ErrInvalidAmount
	}
	if !deadline.After(now) {
		return Result{}, ErrInvalidDeadline
	}
	if deposit != amount {
		return Result{}, ErrDepositMismatch
	}
	index := len(p.Milestones)
	p.Milestones = append(p.Milestones, Milestone{
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Deadline:    deadline.UTC(),
	})
	p.TotalAmount += amount
	p.EscrowBalance += amount
	return Result{
		Events: []Event{{
			Type:    EventMilestoneCreated,
			ActorID: caller,
			Payload: MilestoneCreatedPayload{
				Index:       index,
				Description: p.Milestones[index].Description,
				Amount:      amount,
				Deadline:    p.Milestones[index].Deadline,
			},
		}},
		Transfers: []Transfer{{Kind: TransferDeposit, Amount: amount}},
	}, nil
}

// Start transitions the contract to Active. Requires an assigned freelancer
// and at least one milestone.
func (p *Project) Start(caller uuid.UUID) (Result, error) {
	if err := p.requireRole(caller, RoleClient); err != nil {
		return Result{}, err
	}
	if p.State != StateCreated {
		return Result{}, ErrAlreadyStarted
	}
	if p.FreelancerID == uuid.Nil {
		return Result{}, ErrNoFreelancer
	}
	if len(p.Milestones) == 0 {
		return Result{}, ErrNoMilestones
	}
	p.State = StateActive
	return Result{Events: []Event{{
		Type:    EventProjectStarted,
		ActorID: caller,
		Payload: ProjectStartedPayload{MilestoneCount: len(p.Milestones), TotalAmount: p.TotalAmount},
	}}}, nil
}

// Cancel terminates an Active contract that has made no progress and refunds
// the entire remaining escrow to the client. This is the only refund path.
func (p *Project) Cancel(caller uuid.UUID) (Result, error) {
	if err := p.requireRole(caller, RoleClient); err != nil {
		return Result{}, err
	}
	if p.State != StateActive {
		return Result{}, ErrInvalidState
	}
	for i := range p.Milestones {
		if p.Milestones[i].Submitted {
			return Result{}, ErrCancelBlocked
		}
	}
	refund := p.EscrowBalance
	p.EscrowBalance = 0
	p.Cancelled = true
	p.State = StateCancelled
	res := Result{Events: []Event{{
		Type:    EventProjectCancelled,
		ActorID: caller,
		Payload: ProjectCancelledPayload{Refunded: refund},
	}}}
	if refund > 0 {
		res.Transfers = []Transfer{{Kind: TransferRefund, Amount: refund}}
	}
	return res, nil
}

// Submit marks a milestone as delivered by the freelancer. No payment effect.
func (p *Project) Submit(caller uuid.UUID, index int, now time.Time) (Result, error) {
	if err := p.requireRole(caller, RoleFreelancer); err != nil {
		return Result{}, err
	}
	if p.State != StateActive || p.Cancelled {
		return Result{}, ErrInvalidState
	}
	m, err := p.milestone(index)
	if err != nil {
		return Result{}, err
	}
	if m.Submitted {
		return Result{}, ErrAlreadySubmitted
	}
	if now.After(m.Deadline) {
		return Result{}, ErrDeadlineExpired
	}
	m.Submitted = true
	return Result{Events: []Event{{
		Type:    EventMilestoneSubmitted,
		ActorID: caller,
		Payload: MilestoneSubmittedPayload{Index: index},
	}}}, nil
}

// Approve accepts a submitted milestone and releases its payment to the
// freelancer. Approval and payment are one atomic step: the caller commits
// the mutation only if the release transfer succeeds.
func (p *Project) Approve(caller uuid.UUID, index int) (Result, error) {
	if err := p.requireRole(caller, RoleClient); err != nil {
		return Result{}, err
	}
	if p.State != StateActive {
		return Result{}, ErrInvalidState
	}
	m, err := p.milestone(index)
	if err != nil {
		return Result{}, err
	}
	switch {
	case m.Paid:
		return Result{}, ErrAlreadyPaid
	case m.Approved:
		return Result{}, ErrAlreadyApproved
	case !m.Submitted:
		return Result{}, ErrNotSubmitted
	}
	res := Result{Events: []Event{{
		Type:    EventMilestoneApproved,
		ActorID: caller,
		Payload: MilestoneApprovedPayload{Index: index},
	}}}
	if err := p.release(m, index, caller, &res); err != nil {
		return Result{}, err
	}
	p.checkCompletion(caller, &res)
	return res, nil
}

// RaiseDispute suspends the normal lifecycle over one contested milestone.
// At most one dispute may be outstanding at a time.
func (p *Project) RaiseDispute(caller uuid.UUID, index int) (Result, error) {
	if err := p.requireRole(caller, RoleClient, RoleFreelancer); err != nil {
		return Result{}, err
	}
	if p.State != StateActive {
		return Result{}, ErrInvalidState
	}
	if p.DisputeActive {
		return Result{}, ErrDisputeInProgress
	}
	m, err := p.milestone(index)
	if err != nil {
		return Result{}, err
	}
	if !m.Submitted {
		return Result{}, ErrNotSubmitted
	}
	if m.Approved {
		return Result{}, ErrAlreadyApproved
	}
	p.DisputeActive = true
	p.DisputedMilestone = index
	p.State = StateDisputed
	return Result{Events: []Event{{
		Type:    EventDisputeRaised,
		ActorID: caller,
		Payload: DisputeRaisedPayload{Index: index, RaisedBy: p.RoleOf(caller).String()},
	}}}, nil
}

// ResolveDispute settles the active dispute. A rejected milestone stays
// submitted and unpaid, eligible for a future dispute; an approved one is
// paid out under the same all-or-nothing contract as Approve. Either way the
// contract returns to Active.
func (p *Project) ResolveDispute(caller uuid.UUID, index int, approvePayment bool) (Result, error) {
	if err := p.requireRole(caller, RoleArbitrator); err != nil {
		return Result{}, err
	}
	if p.State != StateDisputed {
		return Result{}, ErrInvalidState
	}
	m, err := p.milestone(index)
	if err != nil {
		return Result{}, err
	}
	if index != p.DisputedMilestone {
		return Result{}, ErrDisputeTargetMismatch
	}
	if !m.Submitted {
		return Result{}, ErrNotSubmitted
	}
	if m.Paid {
		return Result{}, ErrAlreadyPaid
	}
	var res Result
	if approvePayment {
		if err := p.release(m, index, caller, &res); err != nil {
			return Result{}, err
		}
	}
	p.DisputeActive = false
	p.DisputedMilestone = -1
	p.State = StateActive
	res.Events = append(res.Events, Event{
		Type:    EventDisputeResolved,
		ActorID: caller,
		Payload: DisputeResolvedPayload{Index: index, PaymentApproved: approvePayment},
	})
	p.checkCompletion(caller, &res)
	return res, nil
}

// release marks the milestone paid, decrements escrow with checked
// subtraction and stages the payout transfer.
func (p *Project) release(m *Milestone, index int, actor uuid.UUID, res *Result) error {
	if p.EscrowBalance < m.Amount {
		return ErrEscrowUnderflow
	}
	m.Approved = true
	m.Paid = true
	p.EscrowBalance -= m.Amount
	res.Events = append(res.Events, Event{
		Type:    EventPaymentReleased,
		ActorID: actor,
		Payload: PaymentReleasedPayload{Index: index, Amount: m.Amount, PaidTo: p.FreelancerID},
	})
	res.Transfers = append(res.Transfers, Transfer{Kind: TransferRelease, Amount: m.Amount})
	return nil
}

// checkCompletion transitions to Completed once every milestone is paid.
// Re-evaluating in a terminal state is a no-op.
func (p *Project) checkCompletion(actor uuid.UUID, res *Result) {
	if p.State.Terminal() {
		return
	}
	if len(p.Milestones) == 0 {
		return
	}
	for i := range p.Milestones {
		if !p.Milestones[i].Paid {
			return
		}
	}
	p.Completed = true
	p.State = StateCompleted
	res.Events = append(res.Events, Event{
		Type:    EventProjectCompleted,
		ActorID: actor,
		Payload: ProjectCompletedPayload{TotalAmount: p.TotalAmount},
	})
}

func (p *Project) milestone(index int) (*Milestone, error) {
	if index < 0 || index >= len(p.Milestones) {
		return nil, ErrInvalidMilestoneID
	}
	return &p.Milestones[index], nil
}

// PaidTotal is the sum of paid milestone amounts.
func (p *Project) PaidTotal() uint64 {
	var total uint64
	for i := range p.Milestones {
		if p.Milestones[i].Paid {
			total += p.Milestones[i].Amount
		}
	}
	return total
}
