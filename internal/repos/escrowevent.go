package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/types"
)

type EscrowEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, events []*types.EscrowEvent) error
	ListByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.EscrowEvent, error)
}

type escrowEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEscrowEventRepo(db *gorm.DB, baseLog *logger.Logger) EscrowEventRepo {
	repoLog := baseLog.With("repo", "EscrowEventRepo")
	return &escrowEventRepo{db: db, log: repoLog}
}

func (er *escrowEventRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return er.db
}

func (er *escrowEventRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.EscrowEvent) error {
	if len(events) == 0 {
		return nil
	}
	return er.conn(tx).WithContext(ctx).Create(&events).Error
}

func (er *escrowEventRepo) ListByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.EscrowEvent, error) {
	var events []*types.EscrowEvent
	if err := er.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("seq ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
