package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EscrowEvent is one entry of the per-project audit log. Seq orders events
// within a project; the order of events emitted by a single operation is
// preserved exactly.
type EscrowEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_escrow_event_project_seq" json:"project_id"`
	Seq       uint64         `gorm:"not null;uniqueIndex:ux_escrow_event_project_seq" json:"seq"`
	Type      string         `gorm:"not null;index;column:type" json:"type"`
	ActorID   uuid.UUID      `gorm:"type:uuid;not null" json:"actor_id"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (EscrowEvent) TableName() string {
	return "escrow_event"
}
