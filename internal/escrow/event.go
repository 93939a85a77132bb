package escrow

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of an audit event.
type EventType string

const (
	EventProjectCreated     EventType = "project.created"
	EventProjectSetup       EventType = "project.setup"
	EventMilestoneCreated   EventType = "milestone.created"
	EventProjectStarted     EventType = "project.started"
	EventMilestoneSubmitted EventType = "milestone.submitted"
	EventMilestoneApproved  EventType = "milestone.approved"
	EventPaymentReleased    EventType = "payment.released"
	EventProjectCompleted   EventType = "project.completed"
	EventDisputeRaised      EventType = "dispute.raised"
	EventDisputeResolved    EventType = "dispute.resolved"
	EventProjectCancelled   EventType = "project.cancelled"
)

// Event is an audit record emitted by an operation. The order of events
// within one operation is part of the contract and must be preserved.
type Event struct {
	Type    EventType
	ActorID uuid.UUID
	Payload any
}

// ProjectCreatedPayload captures the payload for project.created events.
type ProjectCreatedPayload struct {
	Title    string    `json:"title"`
	ClientID uuid.UUID `json:"client_id"`
}

// ProjectSetupPayload captures the payload for project.setup events.
type ProjectSetupPayload struct {
	FreelancerID uuid.UUID `json:"freelancer_id"`
	ArbitratorID uuid.UUID `json:"arbitrator_id"`
	Title        string    `json:"title"`
}

// MilestoneCreatedPayload captures the payload for milestone.created events.
type MilestoneCreatedPayload struct {
	Index       int       `json:"index"`
	Description string    `json:"description"`
	Amount      uint64    `json:"amount"`
	Deadline    time.Time `json:"deadline"`
}

// ProjectStartedPayload captures the payload for project.started events.
type ProjectStartedPayload struct {
	MilestoneCount int    `json:"milestone_count"`
	TotalAmount    uint64 `json:"total_amount"`
}

// MilestoneSubmittedPayload captures the payload for milestone.submitted events.
type MilestoneSubmittedPayload struct {
	Index int `json:"index"`
}

// MilestoneApprovedPayload captures the payload for milestone.approved events.
type MilestoneApprovedPayload struct {
	Index int `json:"index"`
}

// PaymentReleasedPayload captures the payload for payment.released events.
type PaymentReleasedPayload struct {
	Index  int       `json:"index"`
	Amount uint64    `json:"amount"`
	PaidTo uuid.UUID `json:"paid_to"`
}

// ProjectCompletedPayload captures the payload for project.completed events.
type ProjectCompletedPayload struct {
	TotalAmount uint64 `json:"total_amount"`
}

// DisputeRaisedPayload captures the payload for dispute.raised events.
type DisputeRaisedPayload struct {
	Index    int    `json:"index"`
	RaisedBy string `json:"raised_by"`
}

// DisputeResolvedPayload captures the payload for dispute.resolved events.
type DisputeResolvedPayload struct {
	Index           int  `json:"index"`
	PaymentApproved bool `json:"payment_approved"`
}

// ProjectCancelledPayload captures the payload for project.cancelled events.
type ProjectCancelledPayload struct {
	Refunded uint64 `json:"refunded"`
}
