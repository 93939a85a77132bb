package escrow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	testClient     = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testFreelancer = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testArbitrator = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testStranger   = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testDeadline() time.Time { return testNow.Add(30 * 24 * time.Hour) }

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, _, err := NewProject(uuid.New(), testClient, "landing page build")
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if _, err := p.Setup(testClient, testFreelancer, testArbitrator, ""); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return p
}

func addTestMilestone(t *testing.T, p *Project, amount uint64) {
	t.Helper()
	if _, err := p.AddMilestone(testClient, "deliverable", amount, amount, testDeadline(), testNow); err != nil {
		t.Fatalf("AddMilestone(%d): %v", amount, err)
	}
}

func startTestProject(t *testing.T, p *Project) {
	t.Helper()
	if _, err := p.Start(testClient); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func assertInvariants(t *testing.T, p *Project) {
	t.Helper()
	if p.Cancelled {
		// Cancellation refunds the remaining escrow, so the accounting
		// identity no longer ties escrow to paid amounts.
		if p.EscrowBalance != 0 {
			t.Fatalf("cancelled project escrow balance = %d, want 0", p.EscrowBalance)
		}
	} else if p.EscrowBalance != p.TotalAmount-p.PaidTotal() {
		t.Fatalf("escrow balance = %d, want %d", p.EscrowBalance, p.TotalAmount-p.PaidTotal())
	}
	for i := range p.Milestones {
		m := p.Milestones[i]
		if m.Paid && !m.Approved {
			t.Fatalf("milestone %d paid but not approved", i)
		}
		if m.Approved && !m.Submitted {
			t.Fatalf("milestone %d approved but not submitted", i)
		}
	}
}

func wantDomainError(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error with code %s, got nil", code)
	}
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("want *escrow.Error with code %s, got %v", code, err)
	}
	if de.Code != code {
		t.Fatalf("error code = %s, want %s", de.Code, code)
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func assertEventOrder(t *testing.T, got []Event, want ...EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count = %d (%v), want %d (%v)", len(got), eventTypes(got), len(want), want)
	}
	for i := range want {
		if got[i].Type != want[i] {
			t.Fatalf("event[%d] = %s, want %s (all: %v)", i, got[i].Type, want[i], eventTypes(got))
		}
	}
}

func TestSetupValidation(t *testing.T) {
	cases := []struct {
		name       string
		caller     uuid.UUID
		freelancer uuid.UUID
		arbitrator uuid.UUID
		wantCode   string
	}{
		{name: "not_client", caller: testStranger, freelancer: testFreelancer, arbitrator: testArbitrator, wantCode: CodeUnauthorized},
		{name: "nil_freelancer", caller: testClient, freelancer: uuid.Nil, arbitrator: testArbitrator, wantCode: CodeInvalidParty},
		{name: "nil_arbitrator", caller: testClient, freelancer: testFreelancer, arbitrator: uuid.Nil, wantCode: CodeInvalidParty},
		{name: "freelancer_is_client", caller: testClient, freelancer: testClient, arbitrator: testArbitrator, wantCode: CodeInvalidParty},
		{name: "arbitrator_is_client", caller: testClient, freelancer: testFreelancer, arbitrator: testClient, wantCode: CodeInvalidParty},
		{name: "freelancer_is_arbitrator", caller: testClient, freelancer: testFreelancer, arbitrator: testFreelancer, wantCode: CodeInvalidParty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _, err := NewProject(uuid.New(), testClient, "t")
			if err != nil {
				t.Fatalf("NewProject: %v", err)
			}
			_, err = p.Setup(tc.caller, tc.freelancer, tc.arbitrator, "")
			wantDomainError(t, err, tc.wantCode)
		})
	}
}

func TestSetupIsPermanent(t *testing.T) {
	p := newTestProject(t)
	_, err := p.Setup(testClient, testStranger, testArbitrator, "")
	wantDomainError(t, err, CodeAlreadyInitialized)
	if p.FreelancerID != testFreelancer {
		t.Fatalf("freelancer changed to %s", p.FreelancerID)
	}
}

func TestAddMilestoneValidation(t *testing.T) {
	cases := []struct {
		name     string
		caller   uuid.UUID
		amount   uint64
		deposit  uint64
		deadline time.Time
		wantCode string
	}{
		{name: "not_client", caller: testFreelancer, amount: 100, deposit: 100, deadline: testDeadline(), wantCode: CodeUnauthorized},
		{name: "zero_amount", caller: testClient, amount: 0, deposit: 0, deadline: testDeadline(), wantCode: CodeInvalidAmount},
		{name: "deadline_now", caller: testClient, amount: 100, deposit: 100, deadline: testNow, wantCode: CodeInvalidDeadline},
		{name: "deadline_past", caller: testClient, amount: 100, deposit: 100, deadline: testNow.Add(-time.Hour), wantCode: CodeInvalidDeadline},
		{name: "underfunded_by_one", caller: testClient, amount: 100, deposit: 99, deadline: testDeadline(), wantCode: CodeDepositMismatch},
		{name: "overfunded", caller: testClient, amount: 100, deposit: 101, deadline: testDeadline(), wantCode: CodeDepositMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProject(t)
			_, err := p.AddMilestone(tc.caller, "d", tc.amount, tc.deposit, tc.deadline, testNow)
			wantDomainError(t, err, tc.wantCode)
			if p.TotalAmount != 0 || p.EscrowBalance != 0 || len(p.Milestones) != 0 {
				t.Fatalf("failed add mutated project: total=%d escrow=%d milestones=%d", p.TotalAmount, p.EscrowBalance, len(p.Milestones))
			}
		})
	}
}

func TestAddMilestoneFundsEscrow(t *testing.T) {
	p := newTestProject(t)
	res, err := p.AddMilestone(testClient, "wireframes", 100, 100, testDeadline(), testNow)
	if err != nil {
		t.Fatalf("AddMilestone: %v", err)
	}
	assertEventOrder(t, res.Events, EventMilestoneCreated)
	if len(res.Transfers) != 1 || res.Transfers[0].Kind != TransferDeposit || res.Transfers[0].Amount != 100 {
		t.Fatalf("transfers = %+v, want one deposit of 100", res.Transfers)
	}
	if p.TotalAmount != 100 || p.EscrowBalance != 100 {
		t.Fatalf("total=%d escrow=%d, want 100/100", p.TotalAmount, p.EscrowBalance)
	}
	assertInvariants(t, p)
}

func TestAddMilestoneRejectedAfterStart(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	startTestProject(t, p)
	_, err := p.AddMilestone(testClient, "late", 50, 50, testDeadline(), testNow)
	wantDomainError(t, err, CodeInvalidState)
}

func TestStartPreconditions(t *testing.T) {
	t.Run("no_freelancer", func(t *testing.T) {
		p, _, err := NewProject(uuid.New(), testClient, "t")
		if err != nil {
			t.Fatalf("NewProject: %v", err)
		}
		_, err = p.Start(testClient)
		wantDomainError(t, err, CodeNoFreelancer)
	})
	t.Run("no_milestones", func(t *testing.T) {
		p := newTestProject(t)
		_, err := p.Start(testClient)
		wantDomainError(t, err, CodeNoMilestones)
	})
	t.Run("already_started", func(t *testing.T) {
		p := newTestProject(t)
		addTestMilestone(t, p, 100)
		startTestProject(t, p)
		_, err := p.Start(testClient)
		wantDomainError(t, err, CodeAlreadyStarted)
	})
}

// Scenario: two milestones of 100 and 200, first submitted and approved.
func TestApproveReleasesSingleMilestone(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	addTestMilestone(t, p, 200)
	startTestProject(t, p)

	if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := p.Approve(testClient, 0)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	assertEventOrder(t, res.Events, EventMilestoneApproved, EventPaymentReleased)
	if len(res.Transfers) != 1 || res.Transfers[0].Kind != TransferRelease || res.Transfers[0].Amount != 100 {
		t.Fatalf("transfers = %+v, want one release of 100", res.Transfers)
	}
	if p.EscrowBalance != 200 {
		t.Fatalf("escrow = %d, want 200", p.EscrowBalance)
	}
	if p.State != StateActive {
		t.Fatalf("state = %s, want active", p.State)
	}
	assertInvariants(t, p)
}

// Scenario: approving the final milestone completes the project.
func TestApprovingLastMilestoneCompletesProject(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	addTestMilestone(t, p, 200)
	startTestProject(t, p)

	for idx := 0; idx < 2; idx++ {
		if _, err := p.Submit(testFreelancer, idx, testNow); err != nil {
			t.Fatalf("Submit(%d): %v", idx, err)
		}
	}
	if _, err := p.Approve(testClient, 0); err != nil {
		t.Fatalf("Approve(0): %v", err)
	}
	res, err := p.Approve(testClient, 1)
	if err != nil {
		t.Fatalf("Approve(1): %v", err)
	}
	assertEventOrder(t, res.Events, EventMilestoneApproved, EventPaymentReleased, EventProjectCompleted)
	if p.EscrowBalance != 0 {
		t.Fatalf("escrow = %d, want 0", p.EscrowBalance)
	}
	if p.State != StateCompleted || !p.Completed {
		t.Fatalf("state = %s completed=%v, want completed/true", p.State, p.Completed)
	}
	if p.PaidTotal() != 300 {
		t.Fatalf("paid total = %d, want 300", p.PaidTotal())
	}
	assertInvariants(t, p)
}

// Scenario: cancellation before any submission refunds escrow; later
// operations fail because the state is terminal.
func TestCancelRefundsBeforeProgress(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 50)
	startTestProject(t, p)

	res, err := p.Cancel(testClient)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	assertEventOrder(t, res.Events, EventProjectCancelled)
	if len(res.Transfers) != 1 || res.Transfers[0].Kind != TransferRefund || res.Transfers[0].Amount != 50 {
		t.Fatalf("transfers = %+v, want one refund of 50", res.Transfers)
	}
	if p.State != StateCancelled || !p.Cancelled || p.EscrowBalance != 0 {
		t.Fatalf("state=%s cancelled=%v escrow=%d", p.State, p.Cancelled, p.EscrowBalance)
	}
	_, err = p.Submit(testFreelancer, 0, testNow)
	wantDomainError(t, err, CodeInvalidState)
	assertInvariants(t, p)
}

func TestCancelBlockedAfterSubmission(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 50)
	startTestProject(t, p)
	if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := p.Cancel(testClient)
	wantDomainError(t, err, CodeCancelBlocked)
	if p.State != StateActive || p.EscrowBalance != 50 {
		t.Fatalf("failed cancel mutated project: state=%s escrow=%d", p.State, p.EscrowBalance)
	}
}

func TestSubmitValidation(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	startTestProject(t, p)

	t.Run("wrong_role", func(t *testing.T) {
		_, err := p.Submit(testClient, 0, testNow)
		wantDomainError(t, err, CodeUnauthorized)
	})
	t.Run("out_of_range", func(t *testing.T) {
		_, err := p.Submit(testFreelancer, 1, testNow)
		wantDomainError(t, err, CodeInvalidMilestoneID)
		_, err = p.Submit(testFreelancer, -1, testNow)
		wantDomainError(t, err, CodeInvalidMilestoneID)
	})
	t.Run("deadline_expired", func(t *testing.T) {
		_, err := p.Submit(testFreelancer, 0, testDeadline().Add(time.Second))
		wantDomainError(t, err, CodeDeadlineExpired)
	})
	t.Run("already_submitted", func(t *testing.T) {
		if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		_, err := p.Submit(testFreelancer, 0, testNow)
		wantDomainError(t, err, CodeAlreadySubmitted)
	})
}

// Scenario: approving an already paid milestone fails without balance change
// or events.
func TestApproveAlreadyPaid(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	addTestMilestone(t, p, 200)
	startTestProject(t, p)
	if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := p.Approve(testClient, 0); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	before := p.EscrowBalance
	_, err := p.Approve(testClient, 0)
	wantDomainError(t, err, CodeAlreadyPaid)
	var de *Error
	if errors.As(err, &de) && de.Kind != KindAlreadyDone {
		t.Fatalf("kind = %v, want KindAlreadyDone", de.Kind)
	}
	if p.EscrowBalance != before {
		t.Fatalf("escrow changed on failed approve: %d -> %d", before, p.EscrowBalance)
	}
}

func TestApproveNotSubmitted(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	startTestProject(t, p)
	_, err := p.Approve(testClient, 0)
	wantDomainError(t, err, CodeNotSubmitted)
}

func TestCompletionCheckIdempotent(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	startTestProject(t, p)
	if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := p.Approve(testClient, 0); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if p.State != StateCompleted {
		t.Fatalf("state = %s, want completed", p.State)
	}

	var res Result
	p.checkCompletion(testClient, &res)
	if len(res.Events) != 0 {
		t.Fatalf("completion re-check emitted %v", eventTypes(res.Events))
	}
	if p.State != StateCompleted || !p.Completed {
		t.Fatalf("completion re-check mutated state: %s", p.State)
	}
}

func TestInvariantsAcrossMixedSequence(t *testing.T) {
	p := newTestProject(t)
	addTestMilestone(t, p, 100)
	addTestMilestone(t, p, 200)
	addTestMilestone(t, p, 300)
	startTestProject(t, p)
	assertInvariants(t, p)

	if _, err := p.Submit(testFreelancer, 1, testNow); err != nil {
		t.Fatalf("Submit(1): %v", err)
	}
	assertInvariants(t, p)
	if _, err := p.Approve(testClient, 1); err != nil {
		t.Fatalf("Approve(1): %v", err)
	}
	assertInvariants(t, p)
	if _, err := p.Submit(testFreelancer, 0, testNow); err != nil {
		t.Fatalf("Submit(0): %v", err)
	}
	if _, err := p.RaiseDispute(testClient, 0); err != nil {
		t.Fatalf("RaiseDispute: %v", err)
	}
	assertInvariants(t, p)
	if _, err := p.ResolveDispute(testArbitrator, 0, true); err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}
	assertInvariants(t, p)
	if p.EscrowBalance != 300 {
		t.Fatalf("escrow = %d, want 300", p.EscrowBalance)
	}
}
