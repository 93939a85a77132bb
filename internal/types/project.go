package types

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	Client       *User      `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
	FreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id,omitempty"`
	ArbitratorID *uuid.UUID `gorm:"type:uuid" json:"arbitrator_id,omitempty"`
	Title        string     `gorm:"not null;column:title" json:"title"`

	TotalAmount   uint64 `gorm:"not null;default:0" json:"total_amount"`
	EscrowBalance uint64 `gorm:"not null;default:0" json:"escrow_balance"`

	State     string `gorm:"not null;index;column:state" json:"state"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
	Cancelled bool   `gorm:"not null;default:false" json:"cancelled"`

	DisputeActive     bool `gorm:"not null;default:false" json:"dispute_active"`
	DisputedMilestone *int `gorm:"column:disputed_milestone" json:"disputed_milestone,omitempty"`

	// EscrowAccountID is the wallet account holding this contract's funds.
	EscrowAccountID uuid.UUID `gorm:"type:uuid;not null" json:"escrow_account_id"`
	// NextEventSeq is the sequence number assigned to the next audit event.
	NextEventSeq uint64 `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string {
	return "project"
}
