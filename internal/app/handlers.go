package app

import (
	"github.com/yungbote/escrow-backend/internal/http/handlers"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/realtime"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Project   *handlers.ProjectHandler
	Milestone *handlers.MilestoneHandler
	Wallet    *handlers.WalletHandler
	Realtime  *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    handlers.NewHealthHandler(),
		Auth:      handlers.NewAuthHandler(serviceset.Auth),
		Project:   handlers.NewProjectHandler(serviceset.Escrow),
		Milestone: handlers.NewMilestoneHandler(serviceset.Escrow),
		Wallet:    handlers.NewWalletHandler(serviceset.Wallet),
		Realtime:  handlers.NewRealtimeHandler(log, hub),
	}
}
