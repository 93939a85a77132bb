package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	WalletOwnerUser    = "user"
	WalletOwnerProject = "project"
)

const (
	WalletEntryDebit  = "debit"
	WalletEntryCredit = "credit"
)

// WalletAccount holds a balance for a user wallet or a project escrow pot.
type WalletAccount struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerType string    `gorm:"not null;uniqueIndex:ux_wallet_owner;column:owner_type" json:"owner_type"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_wallet_owner" json:"owner_id"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (WalletAccount) TableName() string {
	return "wallet_account"
}

// WalletEntry records one side of a transfer for the wallet ledger.
type WalletEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID    uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	Counterparty uuid.UUID `gorm:"type:uuid;not null" json:"counterparty"`
	Direction    string    `gorm:"not null;column:direction" json:"direction"`
	Amount       uint64    `gorm:"not null" json:"amount"`
	Reference    string    `gorm:"column:reference" json:"reference"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (WalletEntry) TableName() string {
	return "wallet_entry"
}
