package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/escrow"
	"github.com/yungbote/escrow-backend/internal/payments"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/repos"
	"github.com/yungbote/escrow-backend/internal/types"
)

// EventPublisher receives committed audit events for realtime fanout. The
// service calls it after the transaction commits, never inside it.
type EventPublisher interface {
	PublishProjectEvents(ctx context.Context, projectID uuid.UUID, events []*types.EscrowEvent)
}

// EscrowService orchestrates contract operations: it locks the project row,
// replays the stored state into the escrow aggregate, runs the operation,
// executes the staged transfers through the gateway and persists everything
// in one transaction. A failed transfer rolls the whole operation back.
type EscrowService interface {
	CreateProject(ctx context.Context, clientID uuid.UUID, title string) (*types.Project, error)
	SetupProject(ctx context.Context, caller, projectID, freelancerID, arbitratorID uuid.UUID, title string) (*types.Project, error)
	AddMilestone(ctx context.Context, caller, projectID uuid.UUID, description string, amount, deposit uint64, deadline time.Time) (*types.Project, error)
	StartProject(ctx context.Context, caller, projectID uuid.UUID) (*types.Project, error)
	SubmitMilestone(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error)
	ApproveMilestone(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error)
	RaiseDispute(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error)
	ResolveDispute(ctx context.Context, caller, projectID uuid.UUID, index int, approvePayment bool) (*types.Project, error)
	CancelProject(ctx context.Context, caller, projectID uuid.UUID) (*types.Project, error)

	GetProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]*types.Project, error)
	GetMilestone(ctx context.Context, projectID uuid.UUID, index int) (*types.Milestone, error)
	ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*types.Milestone, error)
	MilestoneCount(ctx context.Context, projectID uuid.UUID) (int64, error)
	GetBalance(ctx context.Context, projectID uuid.UUID) (uint64, error)
	ListEvents(ctx context.Context, projectID uuid.UUID) ([]*types.EscrowEvent, error)
}

type escrowService struct {
	db            *gorm.DB
	log           *logger.Logger
	projectRepo   repos.ProjectRepo
	milestoneRepo repos.MilestoneRepo
	eventRepo     repos.EscrowEventRepo
	walletRepo    repos.WalletRepo
	userRepo      repos.UserRepo
	gateway       payments.Gateway
	publisher     EventPublisher
	now           func() time.Time
}

// NewEscrowService wires the contract orchestrator. publisher may be nil when
// no realtime fanout is configured; now may be nil to use the wall clock.
func NewEscrowService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	milestoneRepo repos.MilestoneRepo,
	eventRepo repos.EscrowEventRepo,
	walletRepo repos.WalletRepo,
	userRepo repos.UserRepo,
	gateway payments.Gateway,
	publisher EventPublisher,
	now func() time.Time,
) EscrowService {
	if now == nil {
		now = time.Now
	}
	serviceLog := log.With("service", "EscrowService")
	return &escrowService{
		db:            db,
		log:           serviceLog,
		projectRepo:   projectRepo,
		milestoneRepo: milestoneRepo,
		eventRepo:     eventRepo,
		walletRepo:    walletRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		publisher:     publisher,
		now:           now,
	}
}

func (es *escrowService) CreateProject(ctx context.Context, clientID uuid.UUID, title string) (*types.Project, error) {
	agg, res, err := escrow.NewProject(uuid.New(), clientID, title)
	if err != nil {
		return nil, err
	}
	var (
		row    *types.Project
		stored []*types.EscrowEvent
	)
	txErr := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		escrowAccount := &types.WalletAccount{
			ID:        uuid.New(),
			OwnerType: types.WalletOwnerProject,
			OwnerID:   agg.ID,
		}
		if _, err := es.walletRepo.CreateAccount(ctx, tx, escrowAccount); err != nil {
			return fmt.Errorf("create escrow account: %w", err)
		}
		row = &types.Project{
			ID:              agg.ID,
			ClientID:        agg.ClientID,
			Title:           agg.Title,
			State:           agg.State.String(),
			EscrowAccountID: escrowAccount.ID,
			NextEventSeq:    1,
		}
		if _, err := es.projectRepo.Create(ctx, tx, row); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		stored, err = es.appendEvents(ctx, tx, row, res.Events)
		if err != nil {
			return err
		}
		return es.projectRepo.Update(ctx, tx, row)
	})
	if txErr != nil {
		return nil, txErr
	}
	es.publish(ctx, row.ID, stored)
	return row, nil
}

func (es *escrowService) SetupProject(ctx context.Context, caller, projectID, freelancerID, arbitratorID uuid.UUID, title string) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		// The role check inside Setup runs before the existence lookup so an
		// outsider learns nothing about which accounts are registered.
		res, err := agg.Setup(caller, freelancerID, arbitratorID, title)
		if err != nil {
			return escrow.Result{}, err
		}
		if err := es.requireUsers(ctx, freelancerID, arbitratorID); err != nil {
			return escrow.Result{}, err
		}
		return res, nil
	})
}

func (es *escrowService) AddMilestone(ctx context.Context, caller, projectID uuid.UUID, description string, amount, deposit uint64, deadline time.Time) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.AddMilestone(caller, description, amount, deposit, deadline, es.now())
	})
}

func (es *escrowService) StartProject(ctx context.Context, caller, projectID uuid.UUID) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.Start(caller)
	})
}

func (es *escrowService) SubmitMilestone(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.Submit(caller, index, es.now())
	})
}

func (es *escrowService) ApproveMilestone(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.Approve(caller, index)
	})
}

func (es *escrowService) RaiseDispute(ctx context.Context, caller, projectID uuid.UUID, index int) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.RaiseDispute(caller, index)
	})
}

func (es *escrowService) ResolveDispute(ctx context.Context, caller, projectID uuid.UUID, index int, approvePayment bool) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.ResolveDispute(caller, index, approvePayment)
	})
}

func (es *escrowService) CancelProject(ctx context.Context, caller, projectID uuid.UUID) (*types.Project, error) {
	return es.mutate(ctx, projectID, func(agg *escrow.Project) (escrow.Result, error) {
		return agg.Cancel(caller)
	})
}

func (es *escrowService) GetProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	return es.projectRepo.GetByID(ctx, nil, projectID)
}

func (es *escrowService) ListProjects(ctx context.Context, userID uuid.UUID) ([]*types.Project, error) {
	return es.projectRepo.ListByParticipant(ctx, nil, userID)
}

func (es *escrowService) GetMilestone(ctx context.Context, projectID uuid.UUID, index int) (*types.Milestone, error) {
	return es.milestoneRepo.GetByIdx(ctx, nil, projectID, index)
}

func (es *escrowService) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*types.Milestone, error) {
	return es.milestoneRepo.GetByProjectID(ctx, nil, projectID)
}

func (es *escrowService) MilestoneCount(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return es.milestoneRepo.CountByProjectID(ctx, nil, projectID)
}

func (es *escrowService) GetBalance(ctx context.Context, projectID uuid.UUID) (uint64, error) {
	project, err := es.projectRepo.GetByID(ctx, nil, projectID)
	if err != nil {
		return 0, err
	}
	return project.EscrowBalance, nil
}

func (es *escrowService) ListEvents(ctx context.Context, projectID uuid.UUID) ([]*types.EscrowEvent, error) {
	return es.eventRepo.ListByProjectID(ctx, nil, projectID)
}

// mutate runs one contract operation under the project row lock. The domain
// mutation, the gateway transfers, the milestone and project writes and the
// event append all ride the same transaction.
func (es *escrowService) mutate(ctx context.Context, projectID uuid.UUID, op func(agg *escrow.Project) (escrow.Result, error)) (*types.Project, error) {
	var (
		row    *types.Project
		stored []*types.EscrowEvent
	)
	txErr := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = es.projectRepo.GetByIDForUpdate(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("load project: %w", err)
		}
		milestones, err := es.milestoneRepo.GetByProjectID(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("load milestones: %w", err)
		}

		agg := toAggregate(row, milestones)
		res, err := op(agg)
		if err != nil {
			return err
		}

		actor := uuid.Nil
		if len(res.Events) > 0 {
			actor = res.Events[0].ActorID
		}
		if err := es.executeTransfers(ctx, tx, row, agg, res.Transfers); err != nil {
			es.log.Warn("Transfer failed, rolling back operation", "project_id", projectID, "actor_id", actor, "error", err)
			return escrow.TransferFailed(err)
		}

		if err := es.persistAggregate(ctx, tx, row, milestones, agg); err != nil {
			return err
		}
		stored, err = es.appendEvents(ctx, tx, row, res.Events)
		if err != nil {
			return err
		}
		return es.projectRepo.Update(ctx, tx, row)
	})
	if txErr != nil {
		return nil, txErr
	}
	es.publish(ctx, projectID, stored)
	return row, nil
}

// executeTransfers resolves wallet accounts for the staged transfers and runs
// them through the gateway inside the operation's transaction.
func (es *escrowService) executeTransfers(ctx context.Context, tx *gorm.DB, row *types.Project, agg *escrow.Project, transfers []escrow.Transfer) error {
	for _, transfer := range transfers {
		var from, to uuid.UUID
		switch transfer.Kind {
		case escrow.TransferDeposit:
			clientAccount, err := es.walletRepo.GetAccountByOwner(ctx, tx, types.WalletOwnerUser, agg.ClientID)
			if err != nil {
				return fmt.Errorf("resolve client wallet: %w", err)
			}
			from, to = clientAccount.ID, row.EscrowAccountID
		case escrow.TransferRelease:
			freelancerAccount, err := es.walletRepo.GetAccountByOwner(ctx, tx, types.WalletOwnerUser, agg.FreelancerID)
			if err != nil {
				return fmt.Errorf("resolve freelancer wallet: %w", err)
			}
			from, to = row.EscrowAccountID, freelancerAccount.ID
		case escrow.TransferRefund:
			clientAccount, err := es.walletRepo.GetAccountByOwner(ctx, tx, types.WalletOwnerUser, agg.ClientID)
			if err != nil {
				return fmt.Errorf("resolve client wallet: %w", err)
			}
			from, to = row.EscrowAccountID, clientAccount.ID
		default:
			return fmt.Errorf("unknown transfer kind %d", transfer.Kind)
		}
		reference := fmt.Sprintf("%s:%s", transfer.Kind, row.ID)
		if err := es.gateway.Transfer(ctx, tx, from, to, transfer.Amount, reference); err != nil {
			return err
		}
	}
	return nil
}

// persistAggregate writes the aggregate state back onto the stored rows:
// existing milestones are updated in place, appended ones inserted.
func (es *escrowService) persistAggregate(ctx context.Context, tx *gorm.DB, row *types.Project, milestones []*types.Milestone, agg *escrow.Project) error {
	for i, m := range milestones {
		src := agg.Milestones[i]
		if m.Submitted == src.Submitted && m.Approved == src.Approved && m.Paid == src.Paid {
			continue
		}
		m.Submitted = src.Submitted
		m.Approved = src.Approved
		m.Paid = src.Paid
		if err := es.milestoneRepo.Update(ctx, tx, m); err != nil {
			return fmt.Errorf("update milestone %d: %w", i, err)
		}
	}
	for i := len(milestones); i < len(agg.Milestones); i++ {
		src := agg.Milestones[i]
		created := &types.Milestone{
			ID:          uuid.New(),
			ProjectID:   row.ID,
			Idx:         i,
			Description: src.Description,
			Amount:      src.Amount,
			Deadline:    src.Deadline,
			Submitted:   src.Submitted,
			Approved:    src.Approved,
			Paid:        src.Paid,
		}
		if _, err := es.milestoneRepo.Create(ctx, tx, created); err != nil {
			return fmt.Errorf("create milestone %d: %w", i, err)
		}
	}

	if agg.FreelancerID != uuid.Nil {
		freelancerID := agg.FreelancerID
		row.FreelancerID = &freelancerID
	}
	if agg.ArbitratorID != uuid.Nil {
		arbitratorID := agg.ArbitratorID
		row.ArbitratorID = &arbitratorID
	}
	row.Title = agg.Title
	row.TotalAmount = agg.TotalAmount
	row.EscrowBalance = agg.EscrowBalance
	row.State = agg.State.String()
	row.Completed = agg.Completed
	row.Cancelled = agg.Cancelled
	row.DisputeActive = agg.DisputeActive
	if agg.DisputedMilestone >= 0 {
		disputed := agg.DisputedMilestone
		row.DisputedMilestone = &disputed
	} else {
		row.DisputedMilestone = nil
	}
	return nil
}

// appendEvents stores the operation's events under consecutive sequence
// numbers taken from the project row. The row's counter is advanced in
// memory; the caller persists it with the project update.
func (es *escrowService) appendEvents(ctx context.Context, tx *gorm.DB, row *types.Project, events []escrow.Event) ([]*types.EscrowEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	stored := make([]*types.EscrowEvent, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
		stored = append(stored, &types.EscrowEvent{
			ID:        uuid.New(),
			ProjectID: row.ID,
			Seq:       row.NextEventSeq,
			Type:      string(event.Type),
			ActorID:   event.ActorID,
			Data:      datatypes.JSON(data),
		})
		row.NextEventSeq++
	}
	if err := es.eventRepo.Append(ctx, tx, stored); err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}
	return stored, nil
}

func (es *escrowService) publish(ctx context.Context, projectID uuid.UUID, events []*types.EscrowEvent) {
	if es.publisher == nil || len(events) == 0 {
		return
	}
	es.publisher.PublishProjectEvents(ctx, projectID, events)
}

func (es *escrowService) requireUsers(ctx context.Context, userIDs ...uuid.UUID) error {
	for _, userID := range userIDs {
		if userID == uuid.Nil {
			return escrow.ErrInvalidParty
		}
		if _, err := es.userRepo.GetByID(ctx, nil, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return escrow.ErrInvalidParty
			}
			return fmt.Errorf("user %s: %w", userID, err)
		}
	}
	return nil
}

// toAggregate replays a stored project into the in-memory contract aggregate.
func toAggregate(row *types.Project, milestones []*types.Milestone) *escrow.Project {
	agg := &escrow.Project{
		ID:                row.ID,
		ClientID:          row.ClientID,
		Title:             row.Title,
		TotalAmount:       row.TotalAmount,
		EscrowBalance:     row.EscrowBalance,
		State:             escrow.ParseState(row.State),
		Completed:         row.Completed,
		Cancelled:         row.Cancelled,
		DisputeActive:     row.DisputeActive,
		DisputedMilestone: -1,
	}
	if row.FreelancerID != nil {
		agg.FreelancerID = *row.FreelancerID
	}
	if row.ArbitratorID != nil {
		agg.ArbitratorID = *row.ArbitratorID
	}
	if row.DisputedMilestone != nil {
		agg.DisputedMilestone = *row.DisputedMilestone
	}
	agg.Milestones = make([]escrow.Milestone, len(milestones))
	for i, m := range milestones {
		agg.Milestones[i] = escrow.Milestone{
			Description: m.Description,
			Amount:      m.Amount,
			Deadline:    m.Deadline,
			Submitted:   m.Submitted,
			Approved:    m.Approved,
			Paid:        m.Paid,
		}
	}
	return agg
}
