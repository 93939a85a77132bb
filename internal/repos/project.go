package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error)
	GetByID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error)
	// GetByIDForUpdate locks the project row for the duration of the
	// surrounding transaction, serializing contract operations.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error)
	Update(ctx context.Context, tx *gorm.DB, project *types.Project) error
	ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	repoLog := baseLog.With("repo", "ProjectRepo")
	return &projectRepo{db: db, log: repoLog}
}

func (pr *projectRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.db
}

func (pr *projectRepo) Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error) {
	if err := pr.conn(tx).WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (pr *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error) {
	var project types.Project
	if err := pr.conn(tx).WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error) {
	var project types.Project
	if err := forUpdate(pr.conn(tx).WithContext(ctx)).
		First(&project, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) Update(ctx context.Context, tx *gorm.DB, project *types.Project) error {
	return pr.conn(tx).WithContext(ctx).Save(project).Error
}

func (pr *projectRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Project, error) {
	var projects []*types.Project
	if err := pr.conn(tx).WithContext(ctx).
		Where("client_id = ? OR freelancer_id = ? OR arbitrator_id = ?", userID, userID, userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
