package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/types"
)

type WalletRepo interface {
	CreateAccount(ctx context.Context, tx *gorm.DB, account *types.WalletAccount) (*types.WalletAccount, error)
	GetAccountByID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.WalletAccount, error)
	// GetAccountByIDForUpdate locks the account row for balance mutation.
	GetAccountByIDForUpdate(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.WalletAccount, error)
	GetAccountByOwner(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, balance uint64) error
	CreateEntries(ctx context.Context, tx *gorm.DB, entries []*types.WalletEntry) error
	ListEntries(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.WalletEntry, error)
}

type walletRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWalletRepo(db *gorm.DB, baseLog *logger.Logger) WalletRepo {
	repoLog := baseLog.With("repo", "WalletRepo")
	return &walletRepo{db: db, log: repoLog}
}

func (wr *walletRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return wr.db
}

func (wr *walletRepo) CreateAccount(ctx context.Context, tx *gorm.DB, account *types.WalletAccount) (*types.WalletAccount, error) {
	if err := wr.conn(tx).WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (wr *walletRepo) GetAccountByID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.WalletAccount, error) {
	var account types.WalletAccount
	if err := wr.conn(tx).WithContext(ctx).First(&account, "id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (wr *walletRepo) GetAccountByIDForUpdate(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.WalletAccount, error) {
	var account types.WalletAccount
	if err := forUpdate(wr.conn(tx).WithContext(ctx)).
		First(&account, "id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (wr *walletRepo) GetAccountByOwner(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) (*types.WalletAccount, error) {
	var account types.WalletAccount
	if err := wr.conn(tx).WithContext(ctx).
		First(&account, "owner_type = ? AND owner_id = ?", ownerType, ownerID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (wr *walletRepo) UpdateBalance(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, balance uint64) error {
	return wr.conn(tx).WithContext(ctx).
		Model(&types.WalletAccount{}).
		Where("id = ?", accountID).
		Update("balance", balance).Error
}

func (wr *walletRepo) CreateEntries(ctx context.Context, tx *gorm.DB, entries []*types.WalletEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return wr.conn(tx).WithContext(ctx).Create(&entries).Error
}

func (wr *walletRepo) ListEntries(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.WalletEntry, error) {
	var entries []*types.WalletEntry
	if err := wr.conn(tx).WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
