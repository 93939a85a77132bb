package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/payments"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/repos"
	"github.com/yungbote/escrow-backend/internal/types"
)

// WalletService is the value-transfer backend behind the escrow gateway. It
// keeps one account per user plus one per project escrow pot, and records a
// debit/credit entry pair for every transfer.
type WalletService interface {
	payments.Gateway

	CreateAccount(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error)
	GetAccountByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error)
	// Topup credits an account out of thin air. Development/test funding path.
	Topup(ctx context.Context, accountID uuid.UUID, amount uint64) (*types.WalletAccount, error)
	ListEntries(ctx context.Context, accountID uuid.UUID) ([]*types.WalletEntry, error)
}

type walletService struct {
	db         *gorm.DB
	log        *logger.Logger
	walletRepo repos.WalletRepo
}

func NewWalletService(db *gorm.DB, log *logger.Logger, walletRepo repos.WalletRepo) WalletService {
	serviceLog := log.With("service", "WalletService")
	return &walletService{db: db, log: serviceLog, walletRepo: walletRepo}
}

func (ws *walletService) CreateAccount(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error) {
	account := &types.WalletAccount{
		ID:        uuid.New(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
	}
	return ws.walletRepo.CreateAccount(ctx, tx, account)
}

func (ws *walletService) GetAccountByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error) {
	return ws.walletRepo.GetAccountByOwner(ctx, nil, ownerType, ownerID)
}

func (ws *walletService) Topup(ctx context.Context, accountID uuid.UUID, amount uint64) (*types.WalletAccount, error) {
	if amount == 0 {
		return nil, fmt.Errorf("topup amount must be greater than zero")
	}
	var account *types.WalletAccount
	err := ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := ws.walletRepo.GetAccountByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		if err := ws.walletRepo.UpdateBalance(ctx, tx, locked.ID, locked.Balance+amount); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		entry := &types.WalletEntry{
			ID:           uuid.New(),
			AccountID:    locked.ID,
			Counterparty: locked.ID,
			Direction:    types.WalletEntryCredit,
			Amount:       amount,
			Reference:    "topup",
			CreatedAt:    time.Now().UTC(),
		}
		if err := ws.walletRepo.CreateEntries(ctx, tx, []*types.WalletEntry{entry}); err != nil {
			return fmt.Errorf("record entry: %w", err)
		}
		locked.Balance += amount
		account = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (ws *walletService) ListEntries(ctx context.Context, accountID uuid.UUID) ([]*types.WalletEntry, error) {
	return ws.walletRepo.ListEntries(ctx, nil, accountID)
}

// Transfer moves amount between two accounts with checked subtraction. Both
// account rows are locked in ID order to keep lock acquisition deterministic.
func (ws *walletService) Transfer(ctx context.Context, tx *gorm.DB, from, to uuid.UUID, amount uint64, reference string) error {
	if tx == nil {
		return ws.db.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
			return ws.transfer(ctx, innerTx, from, to, amount, reference)
		})
	}
	return ws.transfer(ctx, tx, from, to, amount, reference)
}

func (ws *walletService) transfer(ctx context.Context, tx *gorm.DB, from, to uuid.UUID, amount uint64, reference string) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("transfer source and destination are the same account")
	}

	first, second := from, to
	if second.String() < first.String() {
		first, second = second, first
	}
	firstAcc, err := ws.walletRepo.GetAccountByIDForUpdate(ctx, tx, first)
	if err != nil {
		return fmt.Errorf("load account %s: %w", first, err)
	}
	secondAcc, err := ws.walletRepo.GetAccountByIDForUpdate(ctx, tx, second)
	if err != nil {
		return fmt.Errorf("load account %s: %w", second, err)
	}
	fromAcc, toAcc := firstAcc, secondAcc
	if fromAcc.ID != from {
		fromAcc, toAcc = secondAcc, firstAcc
	}

	if fromAcc.Balance < amount {
		return fmt.Errorf("account %s balance %d below %d: %w", fromAcc.ID, fromAcc.Balance, amount, payments.ErrInsufficientFunds)
	}
	if err := ws.walletRepo.UpdateBalance(ctx, tx, fromAcc.ID, fromAcc.Balance-amount); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if err := ws.walletRepo.UpdateBalance(ctx, tx, toAcc.ID, toAcc.Balance+amount); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	now := time.Now().UTC()
	entries := []*types.WalletEntry{
		{
			ID:           uuid.New(),
			AccountID:    fromAcc.ID,
			Counterparty: toAcc.ID,
			Direction:    types.WalletEntryDebit,
			Amount:       amount,
			Reference:    reference,
			CreatedAt:    now,
		},
		{
			ID:           uuid.New(),
			AccountID:    toAcc.ID,
			Counterparty: fromAcc.ID,
			Direction:    types.WalletEntryCredit,
			Amount:       amount,
			Reference:    reference,
			CreatedAt:    now,
		},
	}
	if err := ws.walletRepo.CreateEntries(ctx, tx, entries); err != nil {
		return fmt.Errorf("record entries: %w", err)
	}
	return nil
}
