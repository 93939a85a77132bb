package types

import (
	"time"

	"github.com/google/uuid"
)

type Milestone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_milestone_project_idx" json:"project_id"`
	Project     *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Idx         int       `gorm:"not null;uniqueIndex:ux_milestone_project_idx" json:"idx"`
	Description string    `gorm:"not null;column:description" json:"description"`
	Amount      uint64    `gorm:"not null" json:"amount"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
	Submitted   bool      `gorm:"not null;default:false" json:"submitted"`
	Approved    bool      `gorm:"not null;default:false" json:"approved"`
	Paid        bool      `gorm:"not null;default:false" json:"paid"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Milestone) TableName() string {
	return "milestone"
}
