package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/types"
)

type MilestoneRepo interface {
	Create(ctx context.Context, tx *gorm.DB, milestone *types.Milestone) (*types.Milestone, error)
	GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Milestone, error)
	GetByIdx(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, idx int) (*types.Milestone, error)
	Update(ctx context.Context, tx *gorm.DB, milestone *types.Milestone) error
	CountByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
}

type milestoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneRepo {
	repoLog := baseLog.With("repo", "MilestoneRepo")
	return &milestoneRepo{db: db, log: repoLog}
}

func (mr *milestoneRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return mr.db
}

func (mr *milestoneRepo) Create(ctx context.Context, tx *gorm.DB, milestone *types.Milestone) (*types.Milestone, error) {
	if err := mr.conn(tx).WithContext(ctx).Create(milestone).Error; err != nil {
		return nil, err
	}
	return milestone, nil
}

func (mr *milestoneRepo) GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Milestone, error) {
	var milestones []*types.Milestone
	if err := mr.conn(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("idx ASC").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

func (mr *milestoneRepo) GetByIdx(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, idx int) (*types.Milestone, error) {
	var milestone types.Milestone
	if err := mr.conn(tx).WithContext(ctx).
		First(&milestone, "project_id = ? AND idx = ?", projectID, idx).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (mr *milestoneRepo) Update(ctx context.Context, tx *gorm.DB, milestone *types.Milestone) error {
	return mr.conn(tx).WithContext(ctx).Save(milestone).Error
}

func (mr *milestoneRepo) CountByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	var count int64
	if err := mr.conn(tx).WithContext(ctx).
		Model(&types.Milestone{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
