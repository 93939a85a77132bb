package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/repos"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Project     repos.ProjectRepo
	Milestone   repos.MilestoneRepo
	EscrowEvent repos.EscrowEventRepo
	Wallet      repos.WalletRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Project:     repos.NewProjectRepo(db, log),
		Milestone:   repos.NewMilestoneRepo(db, log),
		EscrowEvent: repos.NewEscrowEventRepo(db, log),
		Wallet:      repos.NewWalletRepo(db, log),
	}
}
