package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/escrow"
	"github.com/yungbote/escrow-backend/internal/payments"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/repos"
	"github.com/yungbote/escrow-backend/internal/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.WalletAccount{},
		&types.WalletEntry{},
		&types.Project{},
		&types.Milestone{},
		&types.EscrowEvent{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type escrowFixture struct {
	db     *gorm.DB
	wallet WalletService
	escrow EscrowService

	client     uuid.UUID
	freelancer uuid.UUID
	arbitrator uuid.UUID
}

func newEscrowFixture(t *testing.T, gateway payments.Gateway) *escrowFixture {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)

	userRepo := repos.NewUserRepo(db, log)
	projectRepo := repos.NewProjectRepo(db, log)
	milestoneRepo := repos.NewMilestoneRepo(db, log)
	eventRepo := repos.NewEscrowEventRepo(db, log)
	walletRepo := repos.NewWalletRepo(db, log)

	walletService := NewWalletService(db, log, walletRepo)
	if gateway == nil {
		gateway = walletService
	}
	escrowService := NewEscrowService(
		db, log,
		projectRepo, milestoneRepo, eventRepo, walletRepo, userRepo,
		gateway, nil, fixedNow,
	)

	f := &escrowFixture{
		db:     db,
		wallet: walletService,
		escrow: escrowService,
	}
	f.client = f.createUser(t, userRepo, "client@example.com")
	f.freelancer = f.createUser(t, userRepo, "freelancer@example.com")
	f.arbitrator = f.createUser(t, userRepo, "arbitrator@example.com")
	return f
}

func (f *escrowFixture) createUser(t *testing.T, userRepo repos.UserRepo, email string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user := &types.User{ID: uuid.New(), Email: email, Password: "x", DisplayName: email}
	if _, err := userRepo.Create(ctx, nil, user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if _, err := f.wallet.CreateAccount(ctx, nil, types.WalletOwnerUser, user.ID); err != nil {
		t.Fatalf("create wallet for %s: %v", email, err)
	}
	return user.ID
}

func (f *escrowFixture) fund(t *testing.T, userID uuid.UUID, amount uint64) {
	t.Helper()
	ctx := context.Background()
	account, err := f.wallet.GetAccountByOwner(ctx, types.WalletOwnerUser, userID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	if _, err := f.wallet.Topup(ctx, account.ID, amount); err != nil {
		t.Fatalf("topup: %v", err)
	}
}

func (f *escrowFixture) balance(t *testing.T, userID uuid.UUID) uint64 {
	t.Helper()
	account, err := f.wallet.GetAccountByOwner(context.Background(), types.WalletOwnerUser, userID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	return account.Balance
}

// readyProject creates, sets up and funds a project with the given milestone
// amounts, leaving it Active.
func (f *escrowFixture) readyProject(t *testing.T, amounts ...uint64) *types.Project {
	t.Helper()
	ctx := context.Background()
	project, err := f.escrow.CreateProject(ctx, f.client, "site build")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := f.escrow.SetupProject(ctx, f.client, project.ID, f.freelancer, f.arbitrator, ""); err != nil {
		t.Fatalf("setup project: %v", err)
	}
	deadline := testNow.Add(30 * 24 * time.Hour)
	for i, amount := range amounts {
		if _, err := f.escrow.AddMilestone(ctx, f.client, project.ID, fmt.Sprintf("milestone %d", i), amount, amount, deadline); err != nil {
			t.Fatalf("add milestone %d: %v", i, err)
		}
	}
	updated, err := f.escrow.StartProject(ctx, f.client, project.ID)
	if err != nil {
		t.Fatalf("start project: %v", err)
	}
	return updated
}

func wantDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var domainErr *escrow.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error with code %s, got %v", code, err)
	}
	if domainErr.Code != code {
		t.Fatalf("error code: want=%s got=%s (%v)", code, domainErr.Code, err)
	}
}

func TestEscrowFlowEndToEnd(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 1000)

	project := f.readyProject(t, 300, 200)
	if project.State != "active" {
		t.Fatalf("state after start: want=active got=%s", project.State)
	}
	if project.EscrowBalance != 500 || project.TotalAmount != 500 {
		t.Fatalf("escrow funding: balance=%d total=%d", project.EscrowBalance, project.TotalAmount)
	}
	if got := f.balance(t, f.client); got != 500 {
		t.Fatalf("client wallet after deposits: want=500 got=%d", got)
	}

	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 0); err != nil {
		t.Fatalf("submit milestone 0: %v", err)
	}
	updated, err := f.escrow.ApproveMilestone(ctx, f.client, project.ID, 0)
	if err != nil {
		t.Fatalf("approve milestone 0: %v", err)
	}
	if updated.EscrowBalance != 200 {
		t.Fatalf("escrow after first payout: want=200 got=%d", updated.EscrowBalance)
	}
	if got := f.balance(t, f.freelancer); got != 300 {
		t.Fatalf("freelancer wallet after first payout: want=300 got=%d", got)
	}

	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 1); err != nil {
		t.Fatalf("submit milestone 1: %v", err)
	}
	final, err := f.escrow.ApproveMilestone(ctx, f.client, project.ID, 1)
	if err != nil {
		t.Fatalf("approve milestone 1: %v", err)
	}
	if final.State != "completed" || !final.Completed {
		t.Fatalf("project should complete, state=%s completed=%v", final.State, final.Completed)
	}
	if final.EscrowBalance != 0 {
		t.Fatalf("escrow after completion: want=0 got=%d", final.EscrowBalance)
	}
	if got := f.balance(t, f.freelancer); got != 500 {
		t.Fatalf("freelancer wallet after completion: want=500 got=%d", got)
	}

	events, err := f.escrow.ListEvents(ctx, project.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	wantTypes := []string{
		"project.created",
		"project.setup",
		"milestone.created",
		"milestone.created",
		"project.started",
		"milestone.submitted",
		"milestone.approved",
		"payment.released",
		"milestone.submitted",
		"milestone.approved",
		"payment.released",
		"project.completed",
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("event count: want=%d got=%d", len(wantTypes), len(events))
	}
	for i, event := range events {
		if event.Type != wantTypes[i] {
			t.Fatalf("event %d: want=%s got=%s", i, wantTypes[i], event.Type)
		}
		if event.Seq != uint64(i+1) {
			t.Fatalf("event %d seq: want=%d got=%d", i, i+1, event.Seq)
		}
	}
}

func TestAddMilestoneInsufficientFundsRollsBack(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 100)

	project, err := f.escrow.CreateProject(ctx, f.client, "underfunded")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := f.escrow.SetupProject(ctx, f.client, project.ID, f.freelancer, f.arbitrator, ""); err != nil {
		t.Fatalf("setup: %v", err)
	}

	deadline := testNow.Add(24 * time.Hour)
	_, err = f.escrow.AddMilestone(ctx, f.client, project.ID, "too expensive", 500, 500, deadline)
	wantDomainCode(t, err, escrow.CodeTransferFailed)
	if !errors.Is(err, payments.ErrInsufficientFunds) {
		t.Fatalf("expected wrapped ErrInsufficientFunds, got %v", err)
	}

	reloaded, err := f.escrow.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if reloaded.TotalAmount != 0 || reloaded.EscrowBalance != 0 {
		t.Fatalf("rolled-back project should be unfunded: total=%d balance=%d", reloaded.TotalAmount, reloaded.EscrowBalance)
	}
	count, err := f.escrow.MilestoneCount(ctx, project.ID)
	if err != nil {
		t.Fatalf("count milestones: %v", err)
	}
	if count != 0 {
		t.Fatalf("no milestone row should survive rollback, got %d", count)
	}
	if got := f.balance(t, f.client); got != 100 {
		t.Fatalf("client wallet must be untouched: want=100 got=%d", got)
	}
}

type failingGateway struct{}

func (failingGateway) Transfer(ctx context.Context, tx *gorm.DB, from, to uuid.UUID, amount uint64, reference string) error {
	return errors.New("gateway unavailable")
}

func TestApproveTransferFailureRollsBack(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 1000)
	project := f.readyProject(t, 400)
	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	eventsBefore, err := f.escrow.ListEvents(ctx, project.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}

	// Swap in a broken gateway for the approval only.
	log := newTestLogger(t)
	broken := NewEscrowService(
		f.db, log,
		repos.NewProjectRepo(f.db, log),
		repos.NewMilestoneRepo(f.db, log),
		repos.NewEscrowEventRepo(f.db, log),
		repos.NewWalletRepo(f.db, log),
		repos.NewUserRepo(f.db, log),
		failingGateway{}, nil, fixedNow,
	)

	_, err = broken.ApproveMilestone(ctx, f.client, project.ID, 0)
	wantDomainCode(t, err, escrow.CodeTransferFailed)

	milestone, err := f.escrow.GetMilestone(ctx, project.ID, 0)
	if err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if milestone.Approved || milestone.Paid {
		t.Fatalf("milestone must stay unapproved after failed transfer: approved=%v paid=%v", milestone.Approved, milestone.Paid)
	}
	reloaded, err := f.escrow.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if reloaded.EscrowBalance != 400 {
		t.Fatalf("escrow balance must be unchanged: want=400 got=%d", reloaded.EscrowBalance)
	}
	eventsAfter, err := f.escrow.ListEvents(ctx, project.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(eventsAfter) != len(eventsBefore) {
		t.Fatalf("no events may be appended by a failed operation: before=%d after=%d", len(eventsBefore), len(eventsAfter))
	}

	// The healthy gateway can still complete the same approval.
	if _, err := f.escrow.ApproveMilestone(ctx, f.client, project.ID, 0); err != nil {
		t.Fatalf("approve after recovery: %v", err)
	}
	if got := f.balance(t, f.freelancer); got != 400 {
		t.Fatalf("freelancer wallet after recovery: want=400 got=%d", got)
	}
}

func TestCancelRefundsClientWallet(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 600)
	project := f.readyProject(t, 250, 250)

	if got := f.balance(t, f.client); got != 100 {
		t.Fatalf("client wallet after deposits: want=100 got=%d", got)
	}
	cancelled, err := f.escrow.CancelProject(ctx, f.client, project.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.State != "cancelled" || !cancelled.Cancelled {
		t.Fatalf("state after cancel: %s", cancelled.State)
	}
	if cancelled.EscrowBalance != 0 {
		t.Fatalf("escrow after cancel: want=0 got=%d", cancelled.EscrowBalance)
	}
	if got := f.balance(t, f.client); got != 600 {
		t.Fatalf("client wallet after refund: want=600 got=%d", got)
	}
}

func TestResolveDisputeApprovedPaysFreelancer(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 500)
	project := f.readyProject(t, 500)

	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	disputed, err := f.escrow.RaiseDispute(ctx, f.freelancer, project.ID, 0)
	if err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	if disputed.State != "disputed" {
		t.Fatalf("state after dispute: %s", disputed.State)
	}
	if disputed.DisputedMilestone == nil || *disputed.DisputedMilestone != 0 {
		t.Fatalf("disputed milestone not recorded: %v", disputed.DisputedMilestone)
	}

	// Approval by the client is suspended while disputed.
	_, err = f.escrow.ApproveMilestone(ctx, f.client, project.ID, 0)
	wantDomainCode(t, err, escrow.CodeInvalidState)

	resolved, err := f.escrow.ResolveDispute(ctx, f.arbitrator, project.ID, 0, true)
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if resolved.State != "completed" {
		t.Fatalf("single-milestone project should complete on paid resolution, state=%s", resolved.State)
	}
	if got := f.balance(t, f.freelancer); got != 500 {
		t.Fatalf("freelancer wallet after resolution: want=500 got=%d", got)
	}
}

func TestResolveDisputeRejectedKeepsFunds(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 500)
	project := f.readyProject(t, 500)

	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.escrow.RaiseDispute(ctx, f.client, project.ID, 0); err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	resolved, err := f.escrow.ResolveDispute(ctx, f.arbitrator, project.ID, 0, false)
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if resolved.State != "active" {
		t.Fatalf("project should return to active, state=%s", resolved.State)
	}
	if resolved.EscrowBalance != 500 {
		t.Fatalf("escrow must be untouched by rejection: %d", resolved.EscrowBalance)
	}
	if got := f.balance(t, f.freelancer); got != 0 {
		t.Fatalf("freelancer wallet after rejection: want=0 got=%d", got)
	}
	milestone, err := f.escrow.GetMilestone(ctx, project.ID, 0)
	if err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if !milestone.Submitted || milestone.Approved || milestone.Paid {
		t.Fatalf("rejected milestone stays submitted and unpaid: %+v", milestone)
	}
}

func TestSetupRequiresRegisteredUsers(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()

	project, err := f.escrow.CreateProject(ctx, f.client, "p")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	_, err = f.escrow.SetupProject(ctx, f.client, project.ID, uuid.New(), f.arbitrator, "")
	wantDomainCode(t, err, escrow.CodeInvalidParty)

	// Role check comes first: an outsider passing an unknown freelancer id
	// is rejected as unauthorized, not on the unknown account.
	_, err = f.escrow.SetupProject(ctx, f.freelancer, project.ID, uuid.New(), f.arbitrator, "")
	wantDomainCode(t, err, escrow.CodeUnauthorized)
}

func TestOperationsRequireRole(t *testing.T) {
	f := newEscrowFixture(t, nil)
	ctx := context.Background()
	f.fund(t, f.client, 500)
	project := f.readyProject(t, 500)

	_, err := f.escrow.SubmitMilestone(ctx, f.client, project.ID, 0)
	wantDomainCode(t, err, escrow.CodeUnauthorized)

	if _, err := f.escrow.SubmitMilestone(ctx, f.freelancer, project.ID, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err = f.escrow.ApproveMilestone(ctx, f.freelancer, project.ID, 0)
	wantDomainCode(t, err, escrow.CodeUnauthorized)
	_, err = f.escrow.RaiseDispute(ctx, f.arbitrator, project.ID, 0)
	wantDomainCode(t, err, escrow.CodeUnauthorized)
}
