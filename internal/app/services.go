package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/realtime"
	"github.com/yungbote/escrow-backend/internal/services"
)

type Services struct {
	Wallet services.WalletService
	Auth   services.AuthService
	Escrow services.EscrowService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, publisher *realtime.EventPublisher) Services {
	log.Info("Wiring services...")
	walletService := services.NewWalletService(db, log, reposet.Wallet)
	authService := services.NewAuthService(
		db,
		log,
		reposet.User,
		reposet.UserToken,
		walletService,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	escrowService := services.NewEscrowService(
		db,
		log,
		reposet.Project,
		reposet.Milestone,
		reposet.EscrowEvent,
		reposet.Wallet,
		reposet.User,
		walletService,
		publisher,
		nil,
	)
	return Services{
		Wallet: walletService,
		Auth:   authService,
		Escrow: escrowService,
	}
}
